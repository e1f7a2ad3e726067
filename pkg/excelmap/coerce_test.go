package excelmap

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type grade int

type money struct{ cents int64 }

type opaque struct{ n int }

func TestCoerce_Defaults(t *testing.T) {
	c := newCoercer(nil)
	joined := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	var nilPtr *int
	var nilIface fmt.Stringer

	cases := []struct {
		name   string
		in     interface{}
		want   interface{}
		format string
	}{
		{"nil", nil, "", FormatText},
		{"nil pointer", nilPtr, "", FormatText},
		{"nil interface", nilIface, "", FormatText},
		{"string", "abc", "abc", FormatText},
		{"int", 7, int64(7), FormatInteger},
		{"int64 pointer", func() *int64 { v := int64(9); return &v }(), int64(9), FormatInteger},
		{"uint16", uint16(3), uint64(3), FormatInteger},
		{"float64", 1.5, 1.5, FormatDecimal},
		{"float32", float32(2.25), float32(2.25), FormatDecimal},
		{"time", joined, joined, FormatDateTime},
		{"zero time", time.Time{}, "", FormatText},
		{"named int", grade(4), int64(4), FormatInteger},
		{"bool", true, "Yes", FormatText},
		{"duration", 90 * time.Second, "1m30s", FormatText},
		{"strings", []string{"a", "b"}, "a, b", FormatText},
		{"null string", sql.NullString{String: "x", Valid: true}, "x", FormatText},
		{"invalid null string", sql.NullString{}, "", FormatText},
		{"null int", sql.NullInt64{Int64: 5, Valid: true}, int64(5), FormatInteger},
		{"null time", sql.NullTime{Time: joined, Valid: true}, joined, FormatDateTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, format, err := c.coerce(tc.in, "")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.format, format)
		})
	}
}

func TestCoerce_RegistryByTypeName(t *testing.T) {
	r := NewFormatters().Register("excelmap.money", NewFormatter("#,##0.00", func(v interface{}) (string, error) {
		m := v.(money)
		return fmt.Sprintf("%d.%02d", m.cents/100, m.cents%100), nil
	}))
	c := newCoercer(r)

	got, format, err := c.coerce(money{cents: 1234}, "")
	require.NoError(t, err)
	assert.Equal(t, "12.34", got)
	assert.Equal(t, "#,##0.00", format)

	got, _, err = c.coerce(&money{cents: 5}, "")
	require.NoError(t, err)
	assert.Equal(t, "0.05", got)
}

func TestCoerce_NamedFormatter(t *testing.T) {
	r := NewFormatters().Register("upper", NewFormatter("", func(v interface{}) (string, error) {
		return fmt.Sprintf("<%v>", v), nil
	}))
	c := newCoercer(r)

	got, format, err := c.coerce(42, "upper")
	require.NoError(t, err)
	assert.Equal(t, "<42>", got)
	assert.Equal(t, FormatText, format)

	got, _, err = c.coerce(42, "missing")
	assert.ErrorIs(t, err, ErrCoercion)
	assert.Equal(t, "42", got)
}

func TestCoerce_Failures(t *testing.T) {
	r := NewFormatters().
		Register("failing", NewFormatter("", func(v interface{}) (string, error) {
			return "", errors.New("nope")
		})).
		Register("panicking", NewFormatter("", func(v interface{}) (string, error) {
			panic("bad formatter")
		}))
	c := newCoercer(r)

	got, format, err := c.coerce(opaque{n: 1}, "")
	assert.ErrorIs(t, err, ErrCoercion)
	assert.Equal(t, "{1}", got)
	assert.Equal(t, FormatText, format)

	got, _, err = c.coerce("v", "failing")
	assert.ErrorIs(t, err, ErrCoercion)
	assert.Equal(t, "v", got)

	got, _, err = c.coerce("v", "panicking")
	assert.ErrorIs(t, err, ErrCoercion)
	assert.Equal(t, "v", got)
}

func TestCoerce_CachesPerType(t *testing.T) {
	c := newCoercer(nil)
	for i := 0; i < 3; i++ {
		_, _, err := c.coerce(i, "")
		require.NoError(t, err)
	}
	_, _, err := c.coerce("s", "")
	require.NoError(t, err)
	assert.Len(t, c.byType, 2)
}
