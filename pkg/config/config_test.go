package config

import "testing"

func TestAccessTokenForProdRequiresProdToken(t *testing.T) {
	mp := MercadoPagoConfig{TestAccessToken: "TEST-abc"}
	if _, err := mp.AccessTokenFor(AppConfig{Env: AppEnvProd}); err == nil {
		t.Fatal("expected error when prod token is missing in prod")
	}

	mp.ProdAccessToken = "APP-prod"
	token, err := mp.AccessTokenFor(AppConfig{Env: AppEnvProd})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "APP-prod" {
		t.Fatalf("expected prod token, got %q", token)
	}
}

func TestAccessTokenForDevUsesTestToken(t *testing.T) {
	mp := MercadoPagoConfig{ProdAccessToken: "APP-prod", TestAccessToken: " TEST-abc "}
	token, err := mp.AccessTokenFor(AppConfig{Env: AppEnvDev})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "TEST-abc" {
		t.Fatalf("expected trimmed test token, got %q", token)
	}
}

func TestAccessTokenForDevRequiresTestToken(t *testing.T) {
	mp := MercadoPagoConfig{ProdAccessToken: "APP-prod"}
	if _, err := mp.AccessTokenFor(AppConfig{Env: AppEnvDev}); err == nil {
		t.Fatal("expected error when test token is missing outside prod")
	}
}

func TestAppEnvHelpers(t *testing.T) {
	if !(AppConfig{Env: "PROD"}).IsProd() {
		t.Fatal("expected case-insensitive prod match")
	}
	if !(AppConfig{Env: "dev"}).IsDev() {
		t.Fatal("expected dev match")
	}
}
