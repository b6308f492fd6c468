package jwt

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itchan-dev/askchan/shared/domain"
	internal_errors "github.com/itchan-dev/askchan/shared/errors"
	"github.com/itchan-dev/askchan/shared/logger"
)

// Issuer is written to and required from every token.
const Issuer = "askchan"

// Claims identify the user a token was issued to.
type Claims struct {
	UserId domain.UserId `json:"uid"`
	Email  domain.Email  `json:"email"`
	Admin  bool          `json:"admin"`
	jwt.RegisteredClaims
}

func (c *Claims) User() *domain.User {
	return &domain.User{Id: c.UserId, Email: c.Email, Admin: c.Admin}
}

type JwtService interface {
	NewToken(user domain.User) (string, error)
	DecodeToken(jwtStr string) (*Claims, error)
}

type Jwt struct {
	secretKey []byte
	ttl       time.Duration
	parser    *jwt.Parser
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

var errInvalidToken = &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}

func (j *Jwt) NewToken(user domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserId: user.Id,
		Email:  user.Email,
		Admin:  user.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.FormatInt(user.Id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		logger.Log.Error("failed to sign jwt", "error", err, "user_id", user.Id)
		return "", internal_errors.New("Can't create token")
	}
	return tokenString, nil
}

// DecodeToken accepts only unexpired HS256 tokens of this issuer that name a user.
func (j *Jwt) DecodeToken(jwtStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := j.parser.ParseWithClaims(jwtStr, claims, func(*jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	})
	if err != nil {
		logger.Log.Debug("jwt decode failed", "error", err)
		return nil, errInvalidToken
	}
	if !token.Valid || claims.UserId <= 0 {
		return nil, errInvalidToken
	}
	return claims, nil
}
