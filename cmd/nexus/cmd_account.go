package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/nexus/app/models"
)

// ─── Addresses ────────────────────────────────────────────────────────────────

var addressesCmd = &cobra.Command{
	Use:     "addresses",
	Aliases: []string{"address"},
	Short:   "Saved shipping addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return addressesListCmd.RunE(cmd, args)
	},
}

var addressesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := nx.Account.Addresses(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(w, "No saved addresses.")
			return nil
		}
		return table(w, "ID\tADDRESS\tPHONE\tDEFAULT", func(tw *tabwriter.Writer) {
			for _, a := range list {
				def := ""
				if a.IsDefault {
					def = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.Line(), a.Phone, def)
			}
		})
	},
}

var addressInput models.AddressInput

var addressesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a shipping address",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := &addressInput
		if err := ask("Street:", &in.Street); err != nil {
			return err
		}
		if err := ask("City:", &in.City); err != nil {
			return err
		}
		if err := ask("Phone:", &in.Phone, phoneValidator); err != nil {
			return err
		}
		a, err := nx.Account.AddAddress(cmd.Context(), *in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved address %s: %s\n", a.ID, a.Line())
		return nil
	},
}

var addressesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return nx.Account.DeleteAddress(cmd.Context(), models.ID(args[0]))
	},
}

// ─── Wishlist ─────────────────────────────────────────────────────────────────

var savedCmd = &cobra.Command{
	Use:     "saved",
	Aliases: []string{"wishlist"},
	Short:   "Saved items",
	RunE: func(cmd *cobra.Command, args []string) error {
		return savedListCmd.RunE(cmd, args)
	},
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved product ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := nx.Account.SavedItems(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(w, "Your wishlist is empty.")
			return nil
		}
		return table(w, "ID\tPRODUCT", func(tw *tabwriter.Writer) {
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\n", it.ID, it.Product)
			}
		})
	},
}

var savedToggleCmd = &cobra.Command{
	Use:   "toggle <product-id>",
	Short: "Save a product, or unsave it when already saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		saved, err := nx.Account.ToggleSaved(cmd.Context(), models.ID(args[0]))
		if err != nil {
			return err
		}
		if saved {
			fmt.Fprintln(cmd.OutOrStdout(), "Saved.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Removed.")
		}
		return nil
	},
}

var savedRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a product from the wishlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return nx.Account.Unsave(cmd.Context(), models.ID(args[0]))
	},
}

// ─── Reviews ──────────────────────────────────────────────────────────────────

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Read and write product reviews",
}

var reviewsListCmd = &cobra.Command{
	Use:   "list <slug>",
	Short: "Reviews of one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := nx.Catalog.Product(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(p.Reviews) == 0 {
			fmt.Fprintf(w, "%s has no reviews yet.\n", p.Name)
			return nil
		}
		for _, r := range p.Reviews {
			fmt.Fprintf(w, "%-5s %s (%s)\n      %s\n", strings.Repeat("*", r.Rating), r.UserName,
				r.CreatedAt.Format("2006-01-02"), r.Comment)
		}
		return nil
	},
}

var reviewFlags struct {
	rating  string
	comment string
}

var reviewsAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Review a product you bought",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := choose("Rating:", []string{"5", "4", "3", "2", "1"}, "5", &reviewFlags.rating); err != nil {
			return err
		}
		if err := ask("Comment:", &reviewFlags.comment); err != nil {
			return err
		}
		rating, err := strconv.Atoi(reviewFlags.rating)
		if err != nil {
			return fmt.Errorf("rating %q is not a number", reviewFlags.rating)
		}
		_, err = nx.Account.Review(cmd.Context(), models.ReviewInput{
			Product: models.ID(args[0]),
			Rating:  rating,
			Comment: reviewFlags.comment,
		})
		if err != nil {
			return reported(err)
		}
		return nil
	},
}

var reviewsPurchasedCmd = &cobra.Command{
	Use:   "purchased",
	Short: "Products you can review",
	RunE: func(cmd *cobra.Command, args []string) error {
		products, err := nx.Account.Purchased(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(products) == 0 {
			fmt.Fprintln(w, "Nothing to review yet.")
			return nil
		}
		return table(w, "ID\tSLUG\tNAME", func(tw *tabwriter.Writer) {
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Slug, p.Name)
			}
		})
	},
}

func init() {
	f := addressesAddCmd.Flags()
	f.StringVar(&addressInput.Street, "street", "", "street or building")
	f.StringVar(&addressInput.City, "city", "", "city")
	f.StringVar(&addressInput.Phone, "phone", "", "contact phone")
	f.BoolVar(&addressInput.IsDefault, "default", false, "make this the default address")
	addressesCmd.AddCommand(addressesListCmd)
	addressesCmd.AddCommand(addressesAddCmd)
	addressesCmd.AddCommand(addressesDeleteCmd)

	savedCmd.AddCommand(savedListCmd)
	savedCmd.AddCommand(savedToggleCmd)
	savedCmd.AddCommand(savedRemoveCmd)

	reviewsAddCmd.Flags().StringVarP(&reviewFlags.rating, "rating", "r", "", "1 to 5")
	reviewsAddCmd.Flags().StringVarP(&reviewFlags.comment, "comment", "m", "", "review text")
	reviewsCmd.AddCommand(reviewsListCmd)
	reviewsCmd.AddCommand(reviewsAddCmd)
	reviewsCmd.AddCommand(reviewsPurchasedCmd)
}
