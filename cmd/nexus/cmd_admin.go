package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/nexus/app/models"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Back office (staff accounts only)",
}

// nexus admin analytics
var adminAnalyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Revenue, order and customer totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := nx.Admin.Analytics(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Revenue:    %s\n", ksh(a.TotalRevenue))
		fmt.Fprintf(w, "Orders:     %d\n", a.TotalOrders)
		fmt.Fprintf(w, "Customers:  %d\n\n", a.TotalCustomers)
		fmt.Fprintln(w, "Recent orders")
		return printOrders(w, a.RecentOrders)
	},
}

// nexus admin customers
var adminCustomersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Registered customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := nx.Admin.Customers(cmd.Context())
		if err != nil {
			return err
		}
		return table(cmd.OutOrStdout(), "ID\tUSERNAME\tNAME\tEMAIL\tPHONE", func(tw *tabwriter.Writer) {
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.DisplayName(), u.Email, u.Phone)
			}
		})
	},
}

// nexus admin orders
var adminOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "All orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		orders, err := nx.Admin.Orders(cmd.Context())
		if err != nil {
			return err
		}
		return printOrders(cmd.OutOrStdout(), orders)
	},
}

// nexus admin reviews
var adminReviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "All product reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		reviews, err := nx.Admin.Reviews(cmd.Context())
		if err != nil {
			return err
		}
		return table(cmd.OutOrStdout(), "ID\tPRODUCT\tUSER\tRATING\tCOMMENT", func(tw *tabwriter.Writer) {
			for _, r := range reviews {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Product, r.UserName, r.Rating, r.Comment)
			}
		})
	},
}

var adminProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Create and delete products",
}

var productFlags struct {
	in       models.ProductInput
	price    string
	discount string
}

// nexus admin products create --name ... --price ... --category 3 --image lamp.jpg
var adminProductsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Upload a new product",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := productFlags.in
		price, err := decimal.NewFromString(productFlags.price)
		if err != nil {
			return fmt.Errorf("price %q is not a number", productFlags.price)
		}
		in.Price = price
		if productFlags.discount != "" {
			d, err := decimal.NewFromString(productFlags.discount)
			if err != nil {
				return fmt.Errorf("discount price %q is not a number", productFlags.discount)
			}
			in.DiscountPrice = &d
		}
		p, err := nx.Admin.CreateProduct(cmd.Context(), in)
		if err != nil {
			return reported(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", p.Name, p.Slug)
		return nil
	},
}

// nexus admin products delete <slug>
var adminProductsDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := confirm(fmt.Sprintf("Delete %s?", args[0]))
		if err != nil || !ok {
			return err
		}
		return reported(nx.Admin.DeleteProduct(cmd.Context(), args[0]))
	},
}

func init() {
	f := adminProductsCreateCmd.Flags()
	f.StringVar(&productFlags.in.Name, "name", "", "product name")
	f.StringVar(&productFlags.in.Slug, "slug", "", "URL slug (derived from the name when empty)")
	f.StringVar(&productFlags.in.Description, "description", "", "description")
	f.StringVar(&productFlags.price, "price", "", "list price")
	f.StringVar(&productFlags.discount, "discount", "", "discount price")
	f.StringVar((*string)(&productFlags.in.CategoryID), "category", "", "category id")
	f.IntVar(&productFlags.in.Stock, "stock", 0, "units in stock")
	f.BoolVar(&productFlags.in.IsFeatured, "featured", false, "show on the home page")
	f.StringVar(&productFlags.in.Image, "image", "", "path to the product image")
	_ = adminProductsCreateCmd.MarkFlagRequired("name")
	_ = adminProductsCreateCmd.MarkFlagRequired("price")
	_ = adminProductsCreateCmd.MarkFlagRequired("category")

	adminProductsCmd.AddCommand(adminProductsCreateCmd)
	adminProductsCmd.AddCommand(adminProductsDeleteCmd)

	adminCmd.AddCommand(adminAnalyticsCmd)
	adminCmd.AddCommand(adminCustomersCmd)
	adminCmd.AddCommand(adminOrdersCmd)
	adminCmd.AddCommand(adminReviewsCmd)
	adminCmd.AddCommand(adminProductsCmd)
}
