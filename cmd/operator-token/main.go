package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	intconfig "teleferico/internal/config"
	"teleferico/internal/http/middleware"
)

func main() {
	subject := flag.String("subject", "operator-1", "operator id")
	role := flag.String("role", middleware.RoleOperator, "role claim")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	env := intconfig.LoadEnv()
	if !env.OperatorAuthEnabled() {
		fmt.Fprintln(os.Stderr, "JWT_SECRET belum diset")
		os.Exit(1)
	}

	token, err := middleware.SignOperatorToken([]byte(env.JWTSecret), *subject, *role, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gagal membuat token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Subject : %s\nRole    : %s\nExpires : %s\n\n", *subject, *role, time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Printf("Authorization: Bearer %s\n", token)
}
