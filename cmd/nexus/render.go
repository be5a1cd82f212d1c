package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/nexus/app/models"
	"github.com/shashiranjanraj/nexus/app/services"
	"github.com/shashiranjanraj/nexus/pkg/cart"
	"github.com/shashiranjanraj/nexus/pkg/session"
	"github.com/shashiranjanraj/nexus/pkg/validate"
)

// errReported means the failure was already shown as a notification.
var errReported = errors.New("reported")

// reported marks err as errReported when a notification already told the
// user about it. Input and permission errors are not notified and pass
// through unchanged.
func reported(err error) error {
	var invalid validate.Errors
	switch {
	case err == nil:
		return nil
	case errors.As(err, &invalid),
		errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, session.ErrNotAuthenticated):
		return err
	}
	return fmt.Errorf("%w: %w", errReported, err)
}

func ksh(d decimal.Decimal) string {
	return "KSh " + d.StringFixed(2)
}

func table(w io.Writer, header string, rows func(tw *tabwriter.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, header)
	fmt.Fprintln(tw, strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		return '-'
	}, header))
	rows(tw)
	return tw.Flush()
}

func printProducts(w io.Writer, products []models.Product) error {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products found.")
		return nil
	}
	return table(w, "SLUG\tNAME\tCATEGORY\tPRICE\tSTOCK", func(tw *tabwriter.Writer) {
		for _, p := range products {
			price := ksh(p.EffectivePrice())
			if p.EffectivePrice().LessThan(p.Price) {
				price += " (was " + ksh(p.Price) + ")"
			}
			stock := fmt.Sprint(p.Stock)
			if !p.InStock() {
				stock = "out of stock"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Slug, p.Name, p.CategoryName(), price, stock)
		}
	})
}

func printProduct(w io.Writer, p models.Product) {
	fmt.Fprintf(w, "%s\n%s\n\n", p.Name, strings.Repeat("=", len(p.Name)))
	fmt.Fprintf(w, "Price:     %s\n", ksh(p.EffectivePrice()))
	if p.EffectivePrice().LessThan(p.Price) {
		fmt.Fprintf(w, "Was:       %s\n", ksh(p.Price))
	}
	fmt.Fprintf(w, "Category:  %s\n", p.CategoryName())
	fmt.Fprintf(w, "Stock:     %d\n", p.Stock)
	if p.ReviewCount > 0 {
		fmt.Fprintf(w, "Rating:    %.1f (%d reviews)\n", p.Rating, p.ReviewCount)
	}
	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", p.Description)
	}
	if len(p.Reviews) > 0 {
		fmt.Fprintln(w, "\nReviews:")
		for _, r := range p.Reviews {
			fmt.Fprintf(w, "  %s %s: %s\n", strings.Repeat("★", r.Rating), r.UserName, r.Comment)
		}
	}
}

func printCart(w io.Writer, lines []cart.Line) error {
	if len(lines) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return nil
	}
	err := table(w, "ID\tITEM\tQTY\tPRICE\tSUBTOTAL", func(tw *tabwriter.Writer) {
		for _, l := range lines {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", l.ID, l.Title, l.Quantity, ksh(l.Price), ksh(l.Subtotal()))
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal: %s\n", ksh(cart.Total(lines)))
	return nil
}

func printOrders(w io.Writer, orders []models.Order) error {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders yet.")
		return nil
	}
	return table(w, "ORDER\tDATE\tSTATUS\tITEMS\tTOTAL", func(tw *tabwriter.Writer) {
		for _, o := range orders {
			fmt.Fprintf(tw, "#%s\t%s\t%s\t%d\t%s\n", o.ID, o.CreatedAt.Format("2006-01-02"), o.Status, o.ItemCount(), ksh(o.TotalAmount))
		}
	})
}

func printOrder(w io.Writer, o models.Order) error {
	fmt.Fprintf(w, "Order #%s  placed %s\n", o.ID, o.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(w, "Ship to:   %s\n", o.ShippingAddress)
	if o.PhoneNumber != "" {
		fmt.Fprintf(w, "Phone:     %s\n", o.PhoneNumber)
	}
	if o.PaymentMethod != "" {
		fmt.Fprintf(w, "Payment:   %s\n", o.PaymentMethod)
	}
	fmt.Fprintln(w)
	err := table(w, "ITEM\tQTY\tPRICE\tSUBTOTAL", func(tw *tabwriter.Writer) {
		for _, it := range o.Items {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", it.ProductName, it.Quantity, ksh(it.Price), ksh(it.Subtotal()))
		}
	})
	fmt.Fprintf(w, "\nTotal: %s\n", ksh(o.TotalAmount))
	return err
}

// timeline draws the tracking steps of an order.
func timeline(w io.Writer, s models.OrderStatus) {
	if s == models.StatusCancelled {
		fmt.Fprintln(w, "✖ cancelled")
		return
	}
	step := s.Step()
	for i, st := range models.OrderStatuses[:4] {
		mark := "○"
		if i+1 <= step {
			mark = "●"
		}
		fmt.Fprintf(w, "%s %s\n", mark, st)
	}
}

// ─── Prompts ──────────────────────────────────────────────────────────────────

func ask(message string, out *string, validators ...survey.Validator) error {
	if *out != "" {
		return nil
	}
	var opts []survey.AskOpt
	for _, v := range validators {
		opts = append(opts, survey.WithValidator(v))
	}
	return promptErr(survey.AskOne(&survey.Input{Message: message}, out, opts...))
}

func askSecret(message string, out *string) error {
	if *out != "" {
		return nil
	}
	return promptErr(survey.AskOne(&survey.Password{Message: message}, out, survey.WithValidator(survey.Required)))
}

func confirm(message string) (bool, error) {
	var ok bool
	err := survey.AskOne(&survey.Confirm{Message: message}, &ok)
	return ok, promptErr(err)
}

func choose(message string, options []string, def string, out *string) error {
	if *out != "" {
		return nil
	}
	return promptErr(survey.AskOne(&survey.Select{Message: message, Options: options, Default: def}, out))
}

func promptErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errors.New("cancelled")
	}
	return err
}
