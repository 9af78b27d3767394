package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	appkg "github.com/xenking/kart-storefront/internal/app"
	"github.com/xenking/kart-storefront/internal/client"
)

// runFunc executes one CLI verb. args excludes the verb itself.
type runFunc func(ctx context.Context, a *appkg.App, args []string, out *printer) error

var usages = map[string]string{
	"login":      "login -email E -password P",
	"register":   "register -name N -email E [-phone P] -password P -confirm P",
	"verify":     "verify -email E -code 123456",
	"forgot":     "forgot -email E",
	"logout":     "logout",
	"status":     "status",
	"open":       "open <deep link>",
	"home":       "home",
	"products":   "products [-page N] [-size N] [-category C] [-search Q]",
	"product":    "product <id>",
	"search":     "search <query>",
	"categories": "categories",
	"cart":       "cart [show | add <id> | update <id> <qty> | remove <id> | clear | pull]",
	"checkout":   "checkout -street S -city C [-state S] -postal P -country C -payment M",
	"orders":     "orders",
	"order":      "order <id>",
	"cancel":     "cancel <id>",
	"wishlist":   "wishlist [list | toggle <id> | sync]",
	"profile":    "profile [-name N -email E [-phone P]]",
	"addresses":  "addresses",
	"settings":   "settings [show | language <code> | theme <light|dark|system> | onboarded]",
	"health":     "health [-watch interval]",
}

var commands = map[string]runFunc{
	"login":      cmdLogin,
	"register":   cmdRegister,
	"verify":     cmdVerify,
	"forgot":     cmdForgot,
	"logout":     cmdLogout,
	"status":     cmdStatus,
	"open":       cmdOpen,
	"home":       cmdHome,
	"products":   cmdProducts,
	"product":    cmdProduct,
	"search":     cmdSearch,
	"categories": cmdCategories,
	"cart":       cmdCart,
	"checkout":   cmdCheckout,
	"orders":     cmdOrders,
	"order":      cmdOrder,
	"cancel":     cmdCancel,
	"wishlist":   cmdWishlist,
	"profile":    cmdProfile,
	"addresses":  cmdAddresses,
	"settings":   cmdSettings,
	"health":     cmdHealth,
}

func usage(w io.Writer) {
	names := make([]string, 0, len(usages))
	for name := range usages {
		names = append(names, name)
	}
	sort.Strings(names)

	_, _ = fmt.Fprintln(w, "usage: storefront [-config path] <command>")
	_, _ = fmt.Fprintln(w)
	for _, name := range names {
		_, _ = fmt.Fprintln(w, "  "+usages[name])
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, opts appkg.Options) error {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 || fs.Arg(0) == "help" {
		usage(stdout)
		return nil
	}
	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage(stdout)
		return errors.Errorf("unknown command %q", name)
	}

	cfg, err := appkg.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	a, err := appkg.New(ctx, cfg, opts)
	if err != nil {
		return errors.Wrap(err, "initialize")
	}
	defer func() {
		if err := a.Close(); err != nil {
			zctx.From(ctx).Warn("Close", zap.Error(err))
		}
	}()

	if err := cmd(ctx, a, fs.Args()[1:], &printer{w: stdout}); err != nil {
		zctx.From(ctx).Debug("Command failed", zap.String("command", name), zap.Error(err))
		return errors.Wrap(friendly(err), name)
	}
	return nil
}

// friendly replaces server and transport details with the message a user
// should see. Local validation errors pass through.
func friendly(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return errors.New(client.UserMessage(err))
	}
	return err
}

// positional checks the number of positional arguments.
func positional(args []string, n int, usage string) error {
	if len(args) != n {
		return errors.Errorf("usage: %s", usage)
	}
	return nil
}

func parseFlags(name string, args []string, define func(fs *flag.FlagSet)) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	define(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return errors.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return nil
}
