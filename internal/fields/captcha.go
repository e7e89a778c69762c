package fields

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// The captcha ships an arithmetic challenge plus an HMAC over its result.
// The submitter posts the answer and the untouched token; validation
// recomputes the HMAC from the answer and compares. The value never reaches
// stored form_data.

var captchaSecret []byte

func init() {
	secret := os.Getenv("CAPTCHA_SECRET")
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		secret = "test_secret_key_minimum_32_characters_long_for_testing_only"
	}
	captchaSecret = []byte(secret)
}

// CaptchaChallenge is emitted with the rendered form schema.
type CaptchaChallenge struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Op    string `json:"op"`
	Token string `json:"token"`
}

var captchaOps = []string{"+", "-", "*"}

// NewCaptchaChallenge builds a random challenge. Minus operations keep the
// result non-negative.
func NewCaptchaChallenge() CaptchaChallenge {
	x := rand.Intn(12) + 1
	y := rand.Intn(12) + 1
	op := captchaOps[rand.Intn(len(captchaOps))]

	if op == "-" && x < y {
		x, y = y, x
	}

	var result int
	switch op {
	case "+":
		result = x + y
	case "-":
		result = x - y
	case "*":
		result = x * y
	}

	return CaptchaChallenge{X: x, Y: y, Op: op, Token: signCaptcha(fmt.Sprint(result))}
}

func signCaptcha(answer string) string {
	mac := hmac.New(sha256.New, captchaSecret)
	mac.Write([]byte(strings.TrimSpace(answer)))
	return hex.EncodeToString(mac.Sum(nil))
}

type captchaType struct{ base }

func (captchaType) Transient() bool { return true }

// Validate expects [token, answer] as gathered by the binder from the
// "<field>_token" and "<field>" inputs.
func (captchaType) Validate(raw any, _ Options) (any, error) {
	pair, ok := raw.([]string)
	if !ok || len(pair) != 2 {
		return nil, fmt.Errorf("wrong captcha, please check your input")
	}
	token, answer := pair[0], pair[1]
	if !hmac.Equal([]byte(token), []byte(signCaptcha(answer))) {
		return nil, fmt.Errorf("wrong captcha, please check your input")
	}
	return answer, nil
}
