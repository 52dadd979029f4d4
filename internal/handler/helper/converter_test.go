package helper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawAnswerToString(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`"Paris"`, "Paris", false},
		{`" paris "`, " paris ", false},
		{`12`, "12", false},
		{`"12"`, "12", false},
		{`1.5`, "1.5", false},
		{`null`, "", true},
		{`true`, "", true},
		{`{"id":1}`, "", true},
		{`[1]`, "", true},
		{``, "", true},
	}
	for _, tt := range tests {
		got, err := RawAnswerToString(json.RawMessage(tt.raw))
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidAnswerValue, tt.raw)
			continue
		}
		assert.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, "Пробелы внутри строки сохраняются")
	}
}
