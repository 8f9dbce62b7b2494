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
		defaultAlg      = envOr("TOKENX_ALGORITHM", tokenx.AlgHS256)
		defaultToken    = os.Getenv("TOKENX_TOKEN")
	)

	secret := flag.String("secret", defaultSecret, "HMAC signing key (env TOKENX_SIGNING_KEY)")
	issuer := flag.String("issuer", defaultIssuer, "Expected issuer (env TOKENX_ISSUER)")
	audience := flag.String("audience", defaultAudience, "Expected audience (env TOKENX_AUDIENCE)")
	alg := flag.String("alg", defaultAlg, "Signing algorithm: HS256, HS384, or HS512 (env TOKENX_ALGORITHM)")
	skew := flag.Duration("skew", 0, "Accepted clock skew")
	token := flag.String("token", defaultToken, "Token to validate; falls back to the first positional argument (env TOKENX_TOKEN)")
	flag.Parse()

	if *token == "" && flag.NArg() > 0 {
		*token = flag.Arg(0)
	}
	if *secret == "" {
		flag.Usage()
		log.Fatal("secret is required (via flag, .env, or environment variables)")
	}
	if *token == "" {
		flag.Usage()
		log.Fatal("token is required (via flag, argument, or environment variables)")
	}

	verifier, err := tokenx.NewVerifier(tokenx.VerifierConfig{
		Key:       []byte(*secret),
		Algorithm: *alg,
		Issuer:    *issuer,
		Audience:  *audience,
		ClockSkew: *skew,
	})
	if err != nil {
		log.Fatalf("create verifier: %v", err)
	}

	claims, err := verifier.Verify(*token, time.Now())
	if err != nil {
		if code := tokenx.CodeOf(err); code != "" {
			log.Fatalf("validation failed (%s): %v", code, err)
		}
		log.Fatalf("validation failed: %v", err)
	}

	printClaims(claims)
}

func printClaims(claims *tokenx.Claims) {
	fmt.Println("== Token Verified ==")
	fmt.Printf("subject      : %s\n", claims.Subject)
	fmt.Printf("display name : %s\n", claims.DisplayName)
	fmt.Printf("roles        : %s\n", strings.Join(claims.Roles, ", "))
	fmt.Printf("token id     : %s\n", claims.TokenID)
	fmt.Printf("issuer       : %s\n", claims.Issuer)
	fmt.Printf("audience     : %s\n", claims.Audience)
	fmt.Printf("issued_at    : %s\n", claims.IssuedAt.Format(time.RFC3339))
	fmt.Printf("expires_at   : %s\n", claims.ExpiresAt.Format(time.RFC3339))
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
