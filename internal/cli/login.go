package cli

import (
	"context"
	"log"
	"os"
)

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.client.Login(ctx, email, string(password)); err != nil {
		log.Printf("login failed: %v", err)
		return err
	}

	a.userName = email
	printlnFn("Logged in as", email)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		log.Printf("logout failed: %v", err)
		return err
	}
	a.userName = ""
	printlnFn("Logged out")
	return nil
}
