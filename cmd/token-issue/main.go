package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tokenx "github.com/bionicotaku/lingo-utils-tokenx"
)

func main() {
	envPath := defaultEnvPath()
	if err := loadEnvFile(envPath); err != nil {
		log.Printf("warning: load %s: %v", envPath, err)
	}

	var (
		defaultSecret   = os.Getenv("TOKENX_SIGNING_KEY")
		defaultIssuer   = envOr("TOKENX_ISSUER", "ApiGateway")
		defaultAudience = envOr("TOKENX_AUDIENCE", "ApiGatewayClients")
		defaultSubject  = envOr("TOKENX_SUBJECT", "testuser")
		defaultRoles    = os.Getenv("TOKENX_ROLES")
		defaultAlg      = envOr("TOKENX_ALGORITHM", tokenx.AlgHS256)
	)

	secret := flag.String("secret", defaultSecret, "HMAC signing key (env TOKENX_SIGNING_KEY)")
	issuer := flag.String("issuer", defaultIssuer, "Token issuer (env TOKENX_ISSUER)")
	audience := flag.String("audience", defaultAudience, "Token audience (env TOKENX_AUDIENCE)")
	subject := flag.String("subject", defaultSubject, "Token subject (env TOKENX_SUBJECT)")
	roles := flag.String("roles", defaultRoles, "Comma-separated roles (env TOKENX_ROLES)")
	lifetime := flag.Duration("lifetime", time.Hour, "Token lifetime")
	alg := flag.String("alg", defaultAlg, "Signing algorithm: HS256, HS384, or HS512 (env TOKENX_ALGORITHM)")
	flag.Parse()

	if *secret == "" {
		flag.Usage()
		log.Fatal("secret is required (via flag, .env, or environment variables)")
	}

	iss, err := tokenx.NewIssuer(tokenx.Config{
		SigningKey: []byte(*secret),
		Issuer:     *issuer,
		Audience:   *audience,
		Lifetime:   *lifetime,
		Algorithm:  *alg,
	})
	if err != nil {
		log.Fatalf("create issuer: %v", err)
	}

	signed, claims, err := iss.IssueFor(*subject, splitRoles(*roles), time.Now())
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Println(signed)
	log.Printf("issued %s for %q, roles %v, expires %s",
		claims.TokenID, claims.Subject, claims.Roles, claims.ExpiresAt.Format(time.RFC3339))
}

func splitRoles(raw string) []string {
	if raw == "" {
		return nil
	}
	var roles []string
	for _, role := range strings.Split(raw, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func defaultEnvPath() string {
	if path := os.Getenv("TOKENX_ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			log.Printf("warning: invalid line %d in %s", lineNum, filepath.Base(path))
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			log.Printf("warning: set env %s: %v", key, err)
		}
	}
	return scanner.Err()
}
