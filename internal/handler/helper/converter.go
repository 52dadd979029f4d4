package helper

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrInvalidAnswerValue - значение ответа не строка и не число
var ErrInvalidAnswerValue = errors.New("answer must be a string or a number")

// RawAnswerToString преобразует поле answer из запроса в строку для сервиса.
// Строки раскрываются из кавычек, числа (id варианта) передаются как есть.
func RawAnswerToString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrInvalidAnswerValue
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", ErrInvalidAnswerValue
		}
		return s, nil
	case '{', '[', 't', 'f':
		return "", ErrInvalidAnswerValue
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", ErrInvalidAnswerValue
	}
	return n.String(), nil
}
