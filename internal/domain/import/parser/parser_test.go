package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	t.Run("parses standard csv with canonical headers", func(t *testing.T) {
		csv := "date,amount,description\n2024-01-15,-45.99,COFFEE SHOP\n2024-01-16,5000.00,Salary\n"

		table, err := New(Options{}).Parse([]byte(csv))
		require.NoError(t, err)
		assert.Equal(t, "utf-8", table.Encoding)
		assert.Len(t, table.Rows, 2)
		assert.Equal(t, "2024-01-15", table.Rows[0].Get(FieldDate))
		assert.Equal(t, "-45.99", table.Rows[0].Get(FieldAmount))
		assert.Equal(t, "COFFEE SHOP", table.Rows[0].Get(FieldDescription))
	})

	t.Run("maps synonym headers to canonical fields", func(t *testing.T) {
		csv := "Posting_Date,Transaction_Amount,Memo\n2024-01-15,-45.99,COFFEE SHOP\n"

		table, err := New(Options{}).Parse([]byte(csv))
		require.NoError(t, err)
		assert.Equal(t, "2024-01-15", table.Rows[0].Get(FieldDate))
		assert.Equal(t, "-45.99", table.Rows[0].Get(FieldAmount))
		assert.Equal(t, "COFFEE SHOP", table.Rows[0].Get(FieldDescription))
		assert.Equal(t, FieldDate, table.Mapping["Posting_Date"])
	})

	t.Run("memo header satisfies description via synonym", func(t *testing.T) {
		csv := "Date,Amount,Memo\n2024-01-15,-45.99,COFFEE SHOP\n"

		table, err := New(Options{}).Parse([]byte(csv))
		require.NoError(t, err)
		assert.Equal(t, "COFFEE SHOP", table.Rows[0].Get(FieldDescription))
	})

	t.Run("substring match resolves required columns", func(t *testing.T) {
		csv := "Booking Date Stamp,Amount EUR,Item Description\n2024-01-15,-45.99,COFFEE SHOP\n"

		table, err := New(Options{}).Parse([]byte(csv))
		require.NoError(t, err)
		assert.Equal(t, "2024-01-15", table.Rows[0].Get(FieldDate))
	})

	t.Run("explicit column mapping overrides inference", func(t *testing.T) {
		csv := "When,How Much,What\n2024-01-15,-45.99,COFFEE SHOP\n"

		table, err := New(Options{ColumnMapping: map[string]string{
			"When":     FieldDate,
			"How Much": FieldAmount,
			"What":     FieldDescription,
		}}).Parse([]byte(csv))
		require.NoError(t, err)
		assert.Equal(t, "-45.99", table.Rows[0].Get(FieldAmount))
		assert.Equal(t, "COFFEE SHOP", table.Rows[0].Get(FieldDescription))
	})

	t.Run("decodes latin-1 bytes after utf-8 fails", func(t *testing.T) {
		// 0xE9 is é in Latin-1 and invalid as a standalone UTF-8 byte
		data := []byte("date,amount,description\n2024-01-15,-4.50,Caf\xe9 du Parc\n")

		table, err := New(Options{}).Parse(data)
		require.NoError(t, err)
		assert.Equal(t, "latin-1", table.Encoding)
		assert.Equal(t, "Café du Parc", table.Rows[0].Get(FieldDescription))
	})

	t.Run("detects semicolon delimiter", func(t *testing.T) {
		csv := "date;amount;description\n2024-01-15;-45.99;COFFEE SHOP\n"

		table, err := New(Options{}).Parse([]byte(csv))
		require.NoError(t, err)
		assert.Equal(t, ';', table.Delimiter)
		assert.Equal(t, "COFFEE SHOP", table.Rows[0].Get(FieldDescription))
	})

	t.Run("strips utf-8 bom from first header", func(t *testing.T) {
		csv := "\uFEFFdate,amount,description\n2024-01-15,-45.99,COFFEE SHOP\n"

		table, err := New(Options{}).Parse([]byte(csv))
		require.NoError(t, err)
		assert.Equal(t, "date", table.Headers[0])
	})
}

func TestParser_StructuralErrors(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		_, err := New(Options{}).Parse(nil)
		var structural *StructuralError
		require.ErrorAs(t, err, &structural)
	})

	t.Run("header only, no data rows", func(t *testing.T) {
		_, err := New(Options{}).Parse([]byte("date,amount,description\n"))
		var structural *StructuralError
		require.ErrorAs(t, err, &structural)
		assert.Contains(t, structural.Reason, "no data rows")
	})

	t.Run("fewer than three columns", func(t *testing.T) {
		_, err := New(Options{}).Parse([]byte("date,amount\n2024-01-15,-45.99\n"))
		var structural *StructuralError
		require.ErrorAs(t, err, &structural)
		assert.Contains(t, structural.Reason, "columns")
	})

	t.Run("missing required semantic column", func(t *testing.T) {
		_, err := New(Options{}).Parse([]byte("foo,bar,baz\n1,2,3\n"))
		var structural *StructuralError
		require.ErrorAs(t, err, &structural)
		assert.Contains(t, structural.Reason, "required columns not found")
	})

	t.Run("unparseable bytes exhaust the encoding chain", func(t *testing.T) {
		// unclosed quote breaks csv under every encoding
		data := []byte("date,amount,description\n\"broken,1,2\nrow,3,4\n\"x,5")
		_, err := New(Options{}).Parse(data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnparseableFile))
	})
}

func TestParseCanonical(t *testing.T) {
	t.Run("fast path handles canonical headers", func(t *testing.T) {
		csv := "date,amount,description,account\n2024-01-15,-45.99,COFFEE SHOP,checking\n"

		table, ok := ParseCanonical([]byte(csv))
		require.True(t, ok)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "checking", table.Rows[0].Get(FieldAccount))
	})

	t.Run("declines non-canonical headers", func(t *testing.T) {
		_, ok := ParseCanonical([]byte("when,how,what\n1,2,3\n"))
		assert.False(t, ok)
	})
}

func TestSniffColumnTypes(t *testing.T) {
	gofakeit.Seed(42)

	var b strings.Builder
	b.WriteString("date,amount,description\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "2024-01-%02d,%.2f,%s\n", i+1, gofakeit.Price(1, 500), gofakeit.Company()+" purchase of goods")
	}

	table, err := New(Options{}).Parse([]byte(b.String()))
	require.NoError(t, err)

	types := SniffColumnTypes(table)
	require.Len(t, types, 3)
	assert.Equal(t, TypeDate, types[0])
	assert.Equal(t, TypeAmount, types[1])
	assert.Equal(t, TypeDescription, types[2])
}

func TestSniffAccountingParentheses(t *testing.T) {
	assert.True(t, looksLikeAmount("(1,234.56)"))
	assert.True(t, looksLikeAmount("$45.99"))
	assert.True(t, looksLikeAmount("€1.000"))
	assert.False(t, looksLikeAmount("COFFEE SHOP"))
}

func BenchmarkParse(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("date,amount,description\n")
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&sb, "2024-01-15,-%d.99,Merchant %d\n", i%500+1, i)
	}
	data := []byte(sb.String())
	p := New(Options{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Parse(data); err != nil {
			b.Fatal(err)
		}
	}
}
