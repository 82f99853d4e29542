package service

import "math/rand"

const referralCodeLength = 8

const referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateReferralCode(length int) string {
	code := make([]byte, length)
	for i := range code {
		code[i] = referralCodeAlphabet[rand.Intn(len(referralCodeAlphabet))]
	}
	return string(code)
}
