package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/atinyakov/storefront/internal/client"
)

var (
	version   string
	buildDate string
)

const helpText = "Available commands: help, signup, signin, signout, me, items [page], add <itemID>, remove <cartID>, cart, checkout <token>, orders, exit"

// repl runs the interactive shell loop until exit or end of input.
func repl(ctx context.Context, c *client.Client, p *client.Prompter, out io.Writer) {
	for {
		line, ok := p.Line("storefront> ")
		if !ok {
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(out, "Bye")
			return
		}
		if err := dispatch(ctx, c, p, out, args); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
}

func dispatch(ctx context.Context, c *client.Client, p *client.Prompter, out io.Writer, args []string) error {
	switch args[0] {
	case "help":
		fmt.Fprintln(out, helpText)
	case "signup":
		u, err := c.Signup(ctx, p.Credentials(true))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Welcome, %s\n", u.Name)
	case "signin":
		u, err := c.Signin(ctx, p.Credentials(false))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Signed in as %s\n", u.Email)
	case "signout":
		if err := c.Signout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Signed out")
	case "me":
		u, err := c.Me(ctx)
		if err != nil {
			return err
		}
		if u == nil {
			fmt.Fprintln(out, "Not signed in")
			return nil
		}
		fmt.Fprintf(out, "%s <%s> %v\n", u.Name, u.Email, u.Permissions)
	case "items":
		page := 1
		if len(args) > 1 {
			if _, err := fmt.Sscanf(args[1], "%d", &page); err != nil || page < 1 {
				return errors.New("usage: items [page]")
			}
		}
		const perPage = 4
		items, err := c.Items(ctx, (page-1)*perPage, perPage)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, it := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", it.ID, it.Title, formatMoney(it.Price))
		}
		return tw.Flush()
	case "add":
		if len(args) < 2 {
			return errors.New("usage: add <itemID>")
		}
		ci, err := c.AddToCart(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Cart line %s now has %d\n", ci.ID, ci.Quantity)
	case "remove":
		if len(args) < 2 {
			return errors.New("usage: remove <cartID>")
		}
		if err := c.RemoveFromCart(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(out, "Removed")
	case "cart":
		lines, err := c.Cart(ctx)
		if err != nil {
			return err
		}
		var total int64
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, l := range lines {
			total += l.Item.Price * int64(l.Quantity)
			fmt.Fprintf(tw, "%s\t%s\tx%d\t%s\n", l.ID, l.Item.Title, l.Quantity, formatMoney(l.Item.Price))
		}
		fmt.Fprintf(tw, "\tTotal\t\t%s\n", formatMoney(total))
		return tw.Flush()
	case "checkout":
		if len(args) < 2 {
			return errors.New("usage: checkout <token>")
		}
		o, err := c.Checkout(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %s placed, charged %s\n", o.ID, formatMoney(o.Total))
	case "orders":
		orders, err := c.Orders(ctx)
		if err != nil {
			return err
		}
		for _, o := range orders {
			fmt.Fprintf(out, "%s\t%s\t%d items\t%s\n", o.ID, o.CreatedAt.Format("2006-01-02"), len(o.Items), formatMoney(o.Total))
		}
	default:
		fmt.Fprintln(out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func formatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func main() {
	var (
		baseURL     string
		sessionFile string
		showVer     bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:4444", "server base URL")
	flag.StringVar(&sessionFile, "session", client.DefaultSessionFile, "path to session file")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Storefront Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	store := client.NewSessionStore(sessionFile)
	if err := store.Load(); err != nil {
		log.Fatal(err)
	}

	repl(context.Background(), client.New(baseURL, store), client.NewPrompter(os.Stdin, os.Stdout), os.Stdout)
}
