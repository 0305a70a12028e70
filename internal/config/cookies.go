package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Cookies signs player claims into a split JWT cookie pair: "auth"
// holds the readable header.payload, "sign" holds the signature and is
// HttpOnly, so client scripts can inspect who is logged in but cannot
// forge a token.
type Cookies struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	jwt      *JWT
}

func NewCookies(jwt *JWT) (*Cookies, error) {
	if jwt == nil {
		return nil, fmt.Errorf("cookies require a JWT config")
	}

	domain := os.Getenv("COOKIES_DOMAIN")
	secure := os.Getenv("COOKIES_SECURE") != "0"

	sameSite := http.SameSiteStrictMode
	switch strings.ToUpper(os.Getenv("COOKIES_SAMESITE")) {
	case "DEFAULT":
		sameSite = http.SameSiteDefaultMode
	case "LAX":
		sameSite = http.SameSiteLaxMode
	case "NONE":
		sameSite = http.SameSiteNoneMode
	}

	return &Cookies{
		Domain:   domain,
		Secure:   secure,
		SameSite: sameSite,
		jwt:      jwt,
	}, nil
}

func (c *Cookies) set(w http.ResponseWriter, cookie *http.Cookie) {
	cookie.Path = "/"
	cookie.Domain = c.Domain
	cookie.Secure = c.Secure
	cookie.SameSite = c.SameSite
	http.SetCookie(w, cookie)
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	c.set(w, &http.Cookie{Name: "auth", Value: "delete", MaxAge: -1})
	c.set(w, &http.Cookie{Name: "sign", Value: "delete", MaxAge: -1, HttpOnly: true})
}

// Refresh signs claims and writes the cookie pair.
func (c *Cookies) Refresh(w http.ResponseWriter, claims *PlayerClaims) error {
	token, err := c.jwt.Sign(claims)
	if err != nil {
		return err
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("malformed JWT token generated")
	}
	expires := time.Now().Add(c.jwt.TokenLifetime())
	c.set(w, &http.Cookie{
		Name:    "auth",
		Value:   parts[0] + "." + parts[1],
		Expires: expires,
	})
	c.set(w, &http.Cookie{
		Name:     "sign",
		Value:    parts[2],
		Expires:  expires,
		HttpOnly: true,
	})
	return nil
}

func (c *Cookies) ParsePlayerClaims(r *http.Request) (*PlayerClaims, error) {
	authCookie, err := r.Cookie("auth")
	if err != nil {
		return nil, err
	}
	signCookie, err := r.Cookie("sign")
	if err != nil {
		return nil, err
	}
	return c.jwt.ParsePlayerClaims(authCookie.Value + "." + signCookie.Value)
}
