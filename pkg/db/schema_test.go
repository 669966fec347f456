package db

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_NextPaymentDateKeepsTimeOfDay(t *testing.T) {
	column := regexp.MustCompile(`(?m)^\s*next_payment_date\s+(\w+)`)

	m := column.FindStringSubmatch(schema)
	if assert.Len(t, m, 2) {
		assert.Equal(t, "TIMESTAMPTZ", m[1])
	}
	assert.Contains(t, schema, "ALTER COLUMN next_payment_date TYPE TIMESTAMPTZ")
}
