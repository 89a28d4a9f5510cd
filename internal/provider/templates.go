package provider

// Generated-file templates. Each provider installs three files into the
// target project's internal/auth package: a client (credential and validator
// setup), an HTTP middleware, and a routes file exposing the registration
// entry point the patcher wires into the bootstrap file.
//
// Templates render with Context; the module path appears in the generated
// header so a reader of the target project can trace where the file belongs.

var auth0Templates = parseFiles(map[string]string{
	"internal/auth/auth0.go": `// Package auth was generated by authwire for {{ .Module }}.
//
// Auth0 configuration is read from the environment:
// AUTH0_DOMAIN, AUTH0_CLIENT_ID, AUTH0_AUDIENCE.
package auth

import (
	"net/url"
	"os"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

func newAuth0Validator() (*validator.Validator, error) {
	issuer, err := url.Parse("https://" + os.Getenv("AUTH0_DOMAIN") + "/")
	if err != nil {
		return nil, err
	}

	keys := jwks.NewCachingProvider(issuer, 5*time.Minute)

	return validator.New(
		keys.KeyFunc,
		validator.RS256,
		issuer.String(),
		[]string{os.Getenv("AUTH0_AUDIENCE")},
	)
}
`,
	"internal/auth/auth0_middleware.go": `package auth

import (
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
)

// Auth0Middleware rejects requests without a valid Auth0-issued JWT.
func Auth0Middleware(next http.Handler) http.Handler {
	v, err := newAuth0Validator()
	if err != nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "auth misconfigured: "+err.Error(), http.StatusInternalServerError)
		})
	}

	return jwtmiddleware.New(v.ValidateToken).CheckJWT(next)
}
`,
	"internal/auth/auth0_routes.go": `package auth

import (
	"encoding/json"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// RegisterAuth0 wires Auth0-protected routes onto mux.
func RegisterAuth0(mux *http.ServeMux) {
	mux.Handle("/auth/me", Auth0Middleware(http.HandlerFunc(auth0Profile)))
}

func auth0Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok {
		http.Error(w, "no token claims", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"subject": claims.RegisteredClaims.Subject,
	})
}
`,
})

var clerkTemplates = parseFiles(map[string]string{
	"internal/auth/clerk.go": `// Package auth was generated by authwire for {{ .Module }}.
//
// Clerk configuration is read from the environment:
// CLERK_SECRET_KEY, CLERK_PUBLISHABLE_KEY.
package auth

import (
	"os"

	"github.com/clerk/clerk-sdk-go/v2"
)

func initClerk() {
	clerk.SetKey(os.Getenv("CLERK_SECRET_KEY"))
}
`,
	"internal/auth/clerk_middleware.go": `package auth

import (
	"net/http"

	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
)

// ClerkMiddleware rejects requests without a valid Clerk session token.
func ClerkMiddleware(next http.Handler) http.Handler {
	return clerkhttp.RequireHeaderAuthorization()(next)
}
`,
	"internal/auth/clerk_routes.go": `package auth

import (
	"encoding/json"
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
)

// RegisterClerk wires Clerk-protected routes onto mux.
func RegisterClerk(mux *http.ServeMux) {
	initClerk()
	mux.Handle("/auth/me", ClerkMiddleware(http.HandlerFunc(clerkProfile)))
}

func clerkProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := clerk.SessionClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"subject": claims.Subject,
	})
}
`,
})

var firebaseTemplates = parseFiles(map[string]string{
	"internal/auth/firebase.go": `// Package auth was generated by authwire for {{ .Module }}.
//
// Firebase configuration is read from the environment:
// FIREBASE_PROJECT_ID, FIREBASE_API_KEY.
package auth

import (
	"context"
	"os"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
)

func newFirebaseClient(ctx context.Context) (*fbauth.Client, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
	})
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}
`,
	"internal/auth/firebase_middleware.go": `package auth

import (
	"net/http"
	"strings"
)

// FirebaseMiddleware rejects requests without a valid Firebase ID token in
// the Authorization header.
func FirebaseMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		client, err := newFirebaseClient(r.Context())
		if err != nil {
			http.Error(w, "auth misconfigured: "+err.Error(), http.StatusInternalServerError)
			return
		}

		decoded, err := client.VerifyIDToken(r.Context(), token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(withFirebaseToken(r.Context(), decoded)))
	})
}
`,
	"internal/auth/firebase_routes.go": `package auth

import (
	"context"
	"encoding/json"
	"net/http"

	fbauth "firebase.google.com/go/v4/auth"
)

type firebaseTokenKey struct{}

func withFirebaseToken(ctx context.Context, token *fbauth.Token) context.Context {
	return context.WithValue(ctx, firebaseTokenKey{}, token)
}

// RegisterFirebase wires Firebase-protected routes onto mux.
func RegisterFirebase(mux *http.ServeMux) {
	mux.Handle("/auth/me", FirebaseMiddleware(http.HandlerFunc(firebaseProfile)))
}

func firebaseProfile(w http.ResponseWriter, r *http.Request) {
	token, ok := r.Context().Value(firebaseTokenKey{}).(*fbauth.Token)
	if !ok {
		http.Error(w, "no token", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"uid": token.UID,
	})
}
`,
})
