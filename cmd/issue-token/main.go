package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"trendshub/internal/auth"
	"trendshub/pkg/utils"
)

func main() {
	var (
		operator = flag.String("operator", "", "name recorded in the token subject")
		scopes   = flag.String("scopes", auth.ScopeFetch, "comma-separated scopes")
	)
	flag.Parse()

	if *operator == "" {
		log.Fatal("operator is required")
	}

	cfg := utils.LoadAuthConfig()
	tokens := auth.TokenService{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Duration: cfg.JWTDuration,
	}

	var list []string
	for _, s := range strings.Split(*scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}

	token, exp, err := tokens.Sign(*operator, list...)
	if err != nil {
		log.Fatalf("sign failed: %v", err)
	}
	log.Printf("token for %s expires %s", *operator, exp.Format("2006-01-02 15:04:05 MST"))
	fmt.Println(token)
}
