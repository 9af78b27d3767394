package main

import (
	"context"
	"flag"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	appkg "github.com/xenking/kart-storefront/internal/app"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/form"
	"github.com/xenking/kart-storefront/internal/wire"
	"github.com/xenking/kart-storefront/pkg/health"
)

func cmdLogin(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	var f form.Login
	if err := parseFlags("login", args, func(fs *flag.FlagSet) {
		fs.StringVar(&f.Email, "email", "", "account email")
		fs.StringVar(&f.Password, "password", "", "account password")
	}); err != nil {
		return err
	}
	s, err := a.Sessions.Login(ctx, f)
	if err != nil {
		return err
	}
	return out.session(s)
}

func cmdRegister(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	var f form.Register
	if err := parseFlags("register", args, func(fs *flag.FlagSet) {
		fs.StringVar(&f.Name, "name", "", "full name")
		fs.StringVar(&f.Email, "email", "", "email")
		fs.StringVar(&f.Phone, "phone", "", "phone number, optional")
		fs.StringVar(&f.Password, "password", "", "password")
		fs.StringVar(&f.ConfirmPassword, "confirm", "", "password confirmation")
	}); err != nil {
		return err
	}
	reg, err := a.Sessions.Register(ctx, f)
	if err != nil {
		return err
	}
	if reg.VerificationRequired {
		msg := reg.Message
		if msg == "" {
			msg = "Verification code sent to " + reg.Email
		}
		return out.message(msg)
	}
	return out.session(reg.Session)
}

func cmdVerify(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	var f form.OTP
	if err := parseFlags("verify", args, func(fs *flag.FlagSet) {
		fs.StringVar(&f.Email, "email", "", "email the code was sent to")
		fs.StringVar(&f.Code, "code", "", "one-time code")
	}); err != nil {
		return err
	}
	s, err := a.Sessions.VerifyOTP(ctx, f)
	if err != nil {
		return err
	}
	return out.session(s)
}

func cmdForgot(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	var email string
	if err := parseFlags("forgot", args, func(fs *flag.FlagSet) {
		fs.StringVar(&email, "email", "", "account email")
	}); err != nil {
		return err
	}
	msg, err := a.Sessions.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	return out.message(msg)
}

func cmdLogout(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	if err := positional(args, 0, usages["logout"]); err != nil {
		return err
	}
	if err := a.Sessions.Logout(ctx); err != nil {
		return err
	}
	return out.message("Signed out")
}

func cmdStatus(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	if err := positional(args, 0, usages["status"]); err != nil {
		return err
	}
	target, err := a.Launch(ctx, "")
	if err != nil {
		return err
	}
	s := a.Bootstrap.Session()
	return out.json(func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("state", func(e *jx.Encoder) { e.Str(a.Bootstrap.State().String()) })
			e.Field("screen", func(e *jx.Encoder) { e.Str(string(target.Screen)) })
			e.Field("onboarded", func(e *jx.Encoder) { e.Bool(a.Storage.OnboardingCompleted(ctx)) })
			if s.Valid() {
				e.Field("session", func(e *jx.Encoder) { encodeSession(e, s) })
			}
		})
	})
}

func cmdOpen(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	if err := positional(args, 1, usages["open"]); err != nil {
		return err
	}
	target, err := a.Launch(ctx, args[0])
	if err != nil {
		return err
	}
	return out.target(target)
}

func cmdHome(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	if err := positional(args, 0, usages["home"]); err != nil {
		return err
	}
	home, err := a.Catalog.Home(ctx, a.Config.Catalog.PageSize)
	if err != nil {
		return err
	}
	return out.json(func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("categories", func(e *jx.Encoder) { wire.EncodeStrings(e, home.Categories) })
			e.Field("featured", func(e *jx.Encoder) { wire.EncodeProducts(e, home.Featured.Items) })
		})
	})
}

func cmdProducts(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	params := product.ListParams{PageSize: a.Config.Catalog.PageSize}
	if err := parseFlags("products", args, func(fs *flag.FlagSet) {
		fs.IntVar(&params.Page, "page", 1, "page number")
		fs.IntVar(&params.PageSize, "size", params.PageSize, "page size")
		fs.StringVar(&params.Category, "category", "", "category filter")
		fs.StringVar(&params.Search, "search", "", "search filter")
	}); err != nil {
		return err
	}
	pg, err := a.Catalog.List(ctx, params)
	if err != nil {
		return err
	}
	return out.page(pg)
}

func cmdProduct(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	if err := positional(args, 1, usages["product"]); err != nil {
		return err
	}
	p, err := a.Catalog.Get(ctx, args[0])
	if err != nil {
		return err
	}
	return out.json(func(e *jx.Encoder) {
		wire.EncodeProduct(e, *p)
	})
}

func cmdSearch(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	if err := positional(args, 1, usages["search"]); err != nil {
		return err
	}
	pg, err := a.Catalog.Search(ctx, args[0])
	if err != nil {
		return err
	}
	return out.page(pg)
}

func cmdCategories(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	if err := positional(args, 0, usages["categories"]); err != nil {
		return err
	}
	cats, err := a.Catalog.Categories(ctx)
	if err != nil {
		return err
	}
	return out.strings(cats)
}

func cmdCart(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	usage := usages["cart"]
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "show":
		if err := positional(args, 0, usage); err != nil {
			return err
		}
	case "add":
		if err := positional(args, 1, usage); err != nil {
			return err
		}
		if _, err := a.AddToCart(ctx, args[0]); err != nil {
			return err
		}
	case "update":
		if err := positional(args, 2, usage); err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Wrap(err, "quantity")
		}
		if _, err := a.SetQuantity(ctx, args[0], qty); err != nil {
			return err
		}
	case "remove":
		if err := positional(args, 1, usage); err != nil {
			return err
		}
		if _, err := a.RemoveFromCart(ctx, args[0]); err != nil {
			return err
		}
	case "clear":
		if err := positional(args, 0, usage); err != nil {
			return err
		}
		if _, err := a.ClearCart(ctx); err != nil {
			return err
		}
	case "pull":
		if err := positional(args, 0, usage); err != nil {
			return err
		}
		if _, err := a.PullCart(ctx); err != nil {
			return err
		}
	default:
		return errors.Errorf("usage: %s", usage)
	}

	st := a.Cart.Snapshot()
	return out.cart(st, a.Orders.Summarize(st))
}

func cmdCheckout(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	var f form.Checkout
	if err := parseFlags("checkout", args, func(fs *flag.FlagSet) {
		fs.StringVar(&f.Address.Street, "street", "", "street address")
		fs.StringVar(&f.Address.City, "city", "", "city")
		fs.StringVar(&f.Address.State, "state", "", "state or region")
		fs.StringVar(&f.Address.PostalCode, "postal", "", "postal code")
		fs.StringVar(&f.Address.Country, "country", "", "country")
		fs.StringVar(&f.PaymentMethod, "payment", "", "credit_card, debit_card, paypal or cash_on_delivery")
	}); err != nil {
		return err
	}
	o, err := a.Checkout(ctx, f)
	if o != nil {
		if perr := out.orders(*o); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

func cmdOrders(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	if err := positional(args, 0, usages["orders"]); err != nil {
		return err
	}
	orders, err := a.Orders.List(ctx)
	if err != nil {
		return err
	}
	return out.json(func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, o := range orders {
				wire.EncodeOrder(e, o)
			}
		})
	})
}

func cmdOrder(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	if err := positional(args, 1, usages["order"]); err != nil {
		return err
	}
	o, err := a.Orders.Get(ctx, args[0])
	if err != nil {
		return err
	}
	return out.orders(*o)
}

func cmdCancel(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	if err := positional(args, 1, usages["cancel"]); err != nil {
		return err
	}
	o, err := a.Orders.Cancel(ctx, args[0])
	if err != nil {
		return err
	}
	return out.orders(*o)
}

func cmdWishlist(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	usage := usages["wishlist"]
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "list":
		if err := positional(args, 0, usage); err != nil {
			return err
		}
	case "toggle":
		if err := positional(args, 1, usage); err != nil {
			return err
		}
		if _, err := a.Wishlist.Toggle(ctx, args[0]); err != nil {
			return err
		}
	case "sync":
		if err := positional(args, 0, usage); err != nil {
			return err
		}
		if err := a.Wishlist.Sync(ctx); err != nil {
			return err
		}
	default:
		return errors.Errorf("usage: %s", usage)
	}
	return out.strings(a.Wishlist.IDs())
}

func cmdProfile(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	var f form.Profile
	if err := parseFlags("profile", args, func(fs *flag.FlagSet) {
		fs.StringVar(&f.Name, "name", "", "new name")
		fs.StringVar(&f.Email, "email", "", "new email")
		fs.StringVar(&f.Phone, "phone", "", "new phone")
	}); err != nil {
		return err
	}
	if f == (form.Profile{}) {
		u, err := a.API.User.Profile(ctx)
		if err != nil {
			return err
		}
		return out.json(func(e *jx.Encoder) { wire.EncodeUser(e, u) })
	}
	u, err := a.UpdateProfile(ctx, f)
	if err != nil {
		return err
	}
	return out.json(func(e *jx.Encoder) { wire.EncodeUser(e, u) })
}

func cmdAddresses(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	if err := positional(args, 0, usages["addresses"]); err != nil {
		return err
	}
	addrs, err := a.API.User.Addresses(ctx)
	if err != nil {
		return err
	}
	return out.json(func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, addr := range addrs {
				wire.EncodeAddress(e, addr)
			}
		})
	})
}

func cmdSettings(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	usage := usages["settings"]
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "show":
		if err := positional(args, 0, usage); err != nil {
			return err
		}
	case "language":
		if err := positional(args, 1, usage); err != nil {
			return err
		}
		if _, err := a.UpdateSettings(ctx, form.Preferences{Language: args[0]}); err != nil {
			return err
		}
	case "theme":
		if err := positional(args, 1, usage); err != nil {
			return err
		}
		if _, err := a.UpdateSettings(ctx, form.Preferences{Theme: args[0]}); err != nil {
			return err
		}
	case "onboarded":
		if err := positional(args, 0, usage); err != nil {
			return err
		}
		if err := a.CompleteOnboarding(ctx); err != nil {
			return err
		}
	default:
		return errors.Errorf("usage: %s", usage)
	}

	return out.settings(a.Settings(ctx))
}

func cmdHealth(ctx context.Context, a *appkg.App, args []string, out *printer) error {
	var watch time.Duration
	if err := parseFlags("health", args, func(fs *flag.FlagSet) {
		fs.DurationVar(&watch, "watch", 0, "re-check at this interval until interrupted")
	}); err != nil {
		return err
	}
	if watch > 0 {
		err := a.Health.Watch(ctx, watch, func(_ bool, report health.Report) {
			if err := out.json(report.Encode); err != nil {
				zctx.From(ctx).Warn("Print health report", zap.Error(err))
			}
		})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}

	report := a.Health.Run(ctx)
	if err := out.json(report.Encode); err != nil {
		return err
	}
	if !report.Healthy() {
		return errors.New("unhealthy")
	}
	return nil
}
