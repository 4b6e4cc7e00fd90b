package cli

import (
	"context"
	"log"
	"os"
	"strings"
)

func (a *App) AddUser(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "New user email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	role, err := GetSimpleText(a.reader, "Admin? (y/N)", os.Stdout)
	if err != nil {
		return err
	}
	isAdmin := strings.EqualFold(role, "y")

	user, err := a.client.AddUser(ctx, email, string(password), isAdmin)
	if err != nil {
		log.Printf("add user failed: %v", err)
		return err
	}
	printlnFn("Created user", user.Email, "with id", user.ID)
	return nil
}

func (a *App) DeleteUser(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email of the user to delete", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.client.DeleteUser(ctx, email); err != nil {
		log.Printf("delete user failed: %v", err)
		return err
	}
	printlnFn("Deleted", email)
	return nil
}

func (a *App) ListUsers(ctx context.Context) error {
	admins, err := a.client.Emails(ctx, true)
	if err != nil {
		log.Printf("listing admins failed: %v", err)
		return err
	}
	common, err := a.client.Emails(ctx, false)
	if err != nil {
		log.Printf("listing users failed: %v", err)
		return err
	}

	printlnFn("Admins:")
	for _, email := range admins {
		printlnFn("  " + email)
	}
	printlnFn("Users:")
	for _, email := range common {
		printlnFn("  " + email)
	}
	return nil
}
