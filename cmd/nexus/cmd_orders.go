package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/nexus/app/models"
	"github.com/shashiranjanraj/nexus/app/services"
	"github.com/shashiranjanraj/nexus/pkg/session"
	"github.com/shashiranjanraj/nexus/pkg/validate"
)

var checkoutFlags struct {
	form    services.CheckoutForm
	payment string
	yes     bool
}

// nexus checkout
var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for everything in the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		w := cmd.OutOrStdout()

		if nx.Session.State() != session.Authenticated {
			return errors.New("log in first: nexus login")
		}
		if nx.Cart.Empty() {
			return services.ErrEmptyCart
		}

		f := &checkoutFlags.form
		if f.Address == "" {
			if a, ok, err := nx.Account.DefaultAddress(ctx); err == nil && ok {
				f.Address, f.City = a.Street, a.City
				if f.Phone == "" {
					f.Phone = a.Phone
				}
			}
		}
		if user, ok := nx.Session.User(); ok && f.FullName == "" && user.FirstName != "" {
			f.FullName = user.DisplayName()
		}
		if err := ask("Full name:", &f.FullName); err != nil {
			return err
		}
		if err := ask("Phone (M-Pesa):", &f.Phone, phoneValidator); err != nil {
			return err
		}
		if err := ask("City:", &f.City); err != nil {
			return err
		}
		if err := ask("Address / location:", &f.Address); err != nil {
			return err
		}
		methods := make([]string, len(models.PaymentMethods))
		for i, m := range models.PaymentMethods {
			methods[i] = string(m)
		}
		if err := choose("Payment method:", methods, methods[0], &checkoutFlags.payment); err != nil {
			return err
		}
		f.PaymentMethod = models.PaymentMethod(checkoutFlags.payment)

		if err := printCart(w, nx.Cart.Lines()); err != nil {
			return err
		}
		if !checkoutFlags.yes {
			ok, err := confirm(fmt.Sprintf("Pay %s?", ksh(nx.Cart.Total())))
			if err != nil || !ok {
				return err
			}
		}

		order, err := nx.Checkout.PlaceOrder(ctx, *f)
		if err != nil {
			return reported(err)
		}
		fmt.Fprintf(w, "\nOrder #%s placed. Track it with: nexus track %s\n", order.ID, order.ID)
		return nil
	},
}

func phoneValidator(v interface{}) error {
	if s, _ := v.(string); !validate.Phone(s) {
		return errors.New("enter a Kenyan number: +2547…, 07… or 01…")
	}
	return nil
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Your order history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ordersListCmd.RunE(cmd, args)
	},
}

// nexus orders list
var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		orders, err := nx.Checkout.Orders(cmd.Context())
		if err != nil {
			return err
		}
		return printOrders(cmd.OutOrStdout(), orders)
	},
}

// nexus orders show <id>
var ordersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Order details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := nx.Checkout.Track(cmd.Context(), models.ID(args[0]))
		if err != nil {
			return err
		}
		return printOrder(cmd.OutOrStdout(), o)
	},
}

// nexus track <id>
var trackCmd = &cobra.Command{
	Use:   "track <id>",
	Short: "Where is my order?",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := nx.Checkout.Track(cmd.Context(), models.ID(args[0]))
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Order #%s, %d items, %s\n\n", o.ID, o.ItemCount(), ksh(o.TotalAmount))
		timeline(w, o.Status)
		return nil
	},
}

func init() {
	f := checkoutCmd.Flags()
	f.StringVar(&checkoutFlags.form.FullName, "name", "", "full name")
	f.StringVar(&checkoutFlags.form.Phone, "phone", "", "phone number for M-Pesa and delivery")
	f.StringVar(&checkoutFlags.form.City, "city", "", "city")
	f.StringVar(&checkoutFlags.form.Address, "address", "", "street address or location")
	f.StringVar(&checkoutFlags.payment, "payment", "", "mpesa, card or bank_transfer")
	f.BoolVarP(&checkoutFlags.yes, "yes", "y", false, "do not ask for confirmation")

	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersShowCmd)
}
