package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/nexus/app/models"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and edit the shopping cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCart(cmd.OutOrStdout(), nx.Cart.Lines())
	},
}

// nexus cart show
var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List cart lines and the total",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCart(cmd.OutOrStdout(), nx.Cart.Lines())
	},
}

var cartQty int

// nexus cart add <slug> --qty 2
var cartAddCmd = &cobra.Command{
	Use:   "add <slug>",
	Short: "Add a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := nx.API.Product(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		nx.Cart.AddProduct(cmd.Context(), p, cartQty)
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s. Cart: %d items, KSh %s\n",
			p.Name, nx.Cart.Count(), nx.Cart.Total().StringFixed(2))
		return nil
	},
}

// nexus cart remove <id>
var cartRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a line from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nx.Cart.Remove(cmd.Context(), models.ID(args[0]))
		return printCart(cmd.OutOrStdout(), nx.Cart.Lines())
	},
}

// nexus cart update <id> <qty>
var cartUpdateCmd = &cobra.Command{
	Use:   "update <id> <qty>",
	Short: "Set the quantity of a line; 0 removes it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity %q is not a number", args[1])
		}
		nx.Cart.UpdateQuantity(cmd.Context(), models.ID(args[0]), n)
		return printCart(cmd.OutOrStdout(), nx.Cart.Lines())
	},
}

// nexus cart clear
var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		nx.Cart.Clear(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared.")
		return nil
	},
}

func init() {
	cartAddCmd.Flags().IntVarP(&cartQty, "qty", "n", 1, "quantity")

	cartCmd.AddCommand(cartShowCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartUpdateCmd)
	cartCmd.AddCommand(cartClearCmd)
}
