package proof

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/interestIngc/cyphershare/internal/common"
)

// Claims carries the payout address a submission is made on behalf of.
type Claims struct {
	jwt.RegisteredClaims
	PayoutAddress string
}

func GenerateToken(payoutAddress string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		PayoutAddress: payoutAddress,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func GetPayoutAddressFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrValidation
	}

	return claims.PayoutAddress, nil
}
