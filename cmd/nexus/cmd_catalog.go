package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/nexus/app/services"
)

// nexus home
var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Featured products, new arrivals and categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := nx.Catalog.Home(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(h.Featured) > 0 {
			fmt.Fprintln(w, "Featured")
			if err := printProducts(w, h.Featured); err != nil {
				return err
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "New arrivals")
		if err := printProducts(w, h.Latest); err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, "Categories: ")
		for i, c := range h.Categories {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprint(w, c.Name)
		}
		fmt.Fprintln(w)
		return nil
	},
}

var productsCmd = &cobra.Command{
	Use:     "products",
	Aliases: []string{"shop"},
	Short:   "Browse the catalog",
}

var searchFlags struct {
	search, category, sort, where string
	min, max                      float64
}

// nexus products list --search lamp --category "Home Decor" --min 500 --max 2000 --sort price-low
var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Search products",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := services.SearchQuery{
			Search:   searchFlags.search,
			Category: searchFlags.category,
			Sort:     searchFlags.sort,
			Where:    searchFlags.where,
			MinPrice: decimal.NewFromFloat(searchFlags.min),
			MaxPrice: decimal.NewFromFloat(searchFlags.max),
		}
		products, err := nx.Catalog.Search(cmd.Context(), q)
		if err != nil {
			return err
		}
		return printProducts(cmd.OutOrStdout(), products)
	},
}

// nexus products show <slug>
var productsShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Product details and reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := nx.Catalog.Product(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printProduct(cmd.OutOrStdout(), p)
		return nil
	},
}

// nexus categories
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cats, err := nx.Catalog.Categories(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range cats {
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", c.Slug, c.Name)
		}
		return nil
	},
}

func init() {
	f := productsListCmd.Flags()
	f.StringVarP(&searchFlags.search, "search", "q", "", "free-text search")
	f.StringVarP(&searchFlags.category, "category", "c", "", "category name")
	f.Float64Var(&searchFlags.min, "min", services.MinPrice.InexactFloat64(), "minimum price")
	f.Float64Var(&searchFlags.max, "max", services.MaxPrice.InexactFloat64(), "maximum price")
	f.StringVar(&searchFlags.sort, "sort", services.SortNewest, "newest, price-low or price-high")
	f.StringVar(&searchFlags.where, "where", "", `filter expression, e.g. 'on_sale && rating >= 4'`)

	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsShowCmd)
}
