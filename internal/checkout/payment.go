package checkout

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

type Method string

const (
	MethodCOD  Method = "cod"
	MethodCard Method = "card"
	MethodUPI  Method = "upi"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// ParseMethod normalizes and validates a client-supplied payment method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodCOD:
		return MethodCOD, nil
	case MethodCard:
		return MethodCard, nil
	case MethodUPI:
		return MethodUPI, nil
	default:
		return "", invalidf("unknown payment method %q", s)
	}
}

// PaymentStatus derives the recorded status from the method. No gateway is
// involved: cash on delivery stays pending until handover, everything else is
// recorded as completed.
func (m Method) PaymentStatus() string {
	if m == MethodCOD {
		return PaymentPending
	}
	return PaymentCompleted
}

func newTransactionRef() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return "TXN-" + hex.EncodeToString(b)
}
