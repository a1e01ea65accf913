// Package jwt signs and verifies HS256 JSON Web Tokens on top of
// github.com/golang-jwt/jwt/v5 and provides HTTP middleware plus context
// helpers for the verified claims.
//
// # Usage
//
//	svc, err := jwt.NewFromString(cfg.SigningKey, jwt.WithIssuer("oauthlink"))
//	if err != nil {
//		return err
//	}
//
//	type SessionClaims struct {
//		jwt.RegisteredClaims
//		Provider string `json:"prv"`
//	}
//
//	token, err := svc.Generate(SessionClaims{
//		RegisteredClaims: jwt.RegisteredClaims{
//			Subject:   accountID,
//			Issuer:    "oauthlink",
//			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
//		},
//	})
//
//	var parsed SessionClaims
//	err = svc.Parse(token, &parsed)
//
// Middleware extracts the bearer token, verifies it and stores the claims in
// the request context; read them back with GetClaims.
//
//	r.With(jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
//		Service:   svc,
//		NewClaims: func() jwt.Claims { return &SessionClaims{} },
//	})).Get("/me", handler)
//
// # Error Handling
//
// Parse errors wrap ErrExpiredToken, ErrInvalidSignature, ErrInvalidIssuer or
// ErrInvalidToken together with the underlying library error.
package jwt
