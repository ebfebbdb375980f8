package hub

import (
	"crypto/rand"
	"math/big"
)

const (
	CodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength  = 6
)

func GenerateCode() (string, error) {
	code := make([]byte, CodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(CodeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = CodeCharset[num.Int64()]
	}
	return string(code), nil
}
