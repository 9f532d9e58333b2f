package sqlstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tmplledger/internal/ledger"
)

func TestMarshalMap(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]string
		want string
	}{
		{"nil", nil, "{}"},
		{"empty", map[string]string{}, "{}"},
		{"sorted keys", map[string]string{"b": "2", "a": "1"}, `{"a":"1","b":"2"}`},
		{"no html escaping", map[string]string{"tag": "<b>&</b>"}, `{"tag":"<b>&</b>"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := marshalMap(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnmarshalMap(t *testing.T) {
	m, err := unmarshalMap("{}")
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = unmarshalMap(`{"a":"1"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, m)

	_, err = unmarshalMap(`{"a":`)
	require.Error(t, err)
}

func TestTime(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 123456789, time.FixedZone("X", 3600))

	s := formatTime(ts)
	assert.Equal(t, "2024-03-01T11:30:00.123456789Z", s)

	back, err := parseTime(s)
	require.NoError(t, err)
	assert.True(t, back.Equal(ts))

	_, err = parseTime("yesterday")
	require.Error(t, err)
}

func TestWhere(t *testing.T) {
	q := &sqlTx{d: Dialect{Placeholder: Dollar}}

	clause, args := q.where(ledger.Filter{}, 1)
	assert.Empty(t, clause)
	assert.Empty(t, args)

	clause, args = q.where(ledger.ActiveOf("d"), 2)
	assert.Equal(t, " WHERE document_id = $2 AND is_active = $3", clause)
	assert.Equal(t, []any{"d", true}, args)

	q = &sqlTx{d: Dialect{Placeholder: QuestionMark}}
	clause, args = q.where(ledger.ByVersion("d", 4), 1)
	assert.Equal(t, " WHERE document_id = ? AND version = ?", clause)
	assert.Equal(t, []any{"d", int64(4)}, args)
}
