package refset

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	values []sql.NullString
	err    error
}

func (s staticSource) ColumnValues(context.Context) ([]sql.NullString, error) {
	return s.values, s.err
}

func valid(v string) sql.NullString { return sql.NullString{String: v, Valid: true} }

func TestSet_AddContains(t *testing.T) {
	s := New()

	assert.True(t, s.Add("Werbung"))
	assert.False(t, s.Add("WERBUNG"), "case variant is not a new member")
	assert.False(t, s.Add("  "), "blank values are ignored")
	assert.True(t, s.Add(" Teleshopping "))

	assert.True(t, s.Contains("werbung"))
	assert.True(t, s.Contains("teleshopping"))
	assert.False(t, s.Contains("Sport"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"Werbung", "Teleshopping"}, s.Values())
}

func TestSet_NilIsEmpty(t *testing.T) {
	var s *Set
	assert.False(t, s.Contains("x"))
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Values())
}

func TestSet_ValuesReturnsCopy(t *testing.T) {
	s := New("a", "b")
	values := s.Values()
	values[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, s.Values())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		values []sql.NullString
		want   []string
	}{
		{
			name:   "no rows",
			values: nil,
			want:   []string{},
		},
		{
			name: "null and empty values mixed with valid ones",
			values: []sql.NullString{
				valid("Werbung"),
				{},
				valid(""),
				valid("   "),
				valid(" Shopping "),
				{Valid: false, String: "ignored"},
				valid("werbung"),
			},
			want: []string{"Werbung", "Shopping"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(context.Background(), staticSource{values: tt.values})
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), s.Len())
			if len(tt.want) > 0 {
				assert.Equal(t, tt.want, s.Values())
			}
		})
	}
}

func TestLoad_SourceError(t *testing.T) {
	_, err := Load(context.Background(), staticSource{err: errors.New("no such table: GeneralDonts")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table")
}

func TestLoadAll(t *testing.T) {
	sets, err := LoadAll(context.Background(), map[string]ColumnSource{
		"template": staticSource{values: []sql.NullString{valid("Werbung")}},
		"channel":  staticSource{},
	})
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.True(t, sets["template"].Contains("WERBUNG"))
	assert.Equal(t, 0, sets["channel"].Len())
}

func TestLoadAll_NamesFailingCategory(t *testing.T) {
	_, err := LoadAll(context.Background(), map[string]ColumnSource{
		"channel": staticSource{err: errors.New("boom")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"channel"`)
}
