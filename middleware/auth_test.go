package middleware

import (
	"strconv"
	"testing"
	"time"

	"canaccesible/pkg/config"
	tokenstore "canaccesible/pkg/token"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func mint(t *testing.T, userID uint, role, jti string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  strconv.Itoa(int(userID)),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
		"jti":  jti,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestParseTokenRoundTrip(t *testing.T) {
	jti := uuid.NewString()
	tok := mint(t, 7, "admin", jti)

	uid, role, gotJTI, err := ParseToken(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uid != "7" || role != "admin" || gotJTI != jti {
		t.Fatalf("claims wrong: uid=%s role=%s jti=%s", uid, role, gotJTI)
	}

	if _, _, _, err := ParseToken("garbage.token.here"); err == nil {
		t.Fatalf("malformed token must not parse")
	}
}

func TestRevokedTokenIsRejected(t *testing.T) {
	jti := uuid.NewString()
	tok := mint(t, 7, "user", jti)

	if _, _, _, err := ParseToken(tok); err != nil {
		t.Fatalf("parse before revocation: %v", err)
	}
	tokenstore.RevokeToken(jti)
	if _, _, _, err := ParseToken(tok); err == nil {
		t.Fatalf("revoked token must be rejected")
	}
}
