package main

import (
	"context"
	"fmt"
	"strings"

	"shopping-agent/internal/di"
	"shopping-agent/internal/domain/entity"

	"github.com/spf13/cobra"
)

const demoQuery = "wireless noise cancelling headphones"

var demoCMD = &cobra.Command{
	Use:   "demo",
	Short: "Run the search, compare and summary walkthrough",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, runDemo)
	},
}

func runDemo(ctx context.Context, c *di.Container) error {
	c.Console.Greeting()

	c.Console.Section("Example 1: Searching for wireless headphones")
	result := c.Assistant.Search(ctx, demoQuery, 3)
	c.Console.SearchResult(result)

	if len(result.Products) > 0 {
		c.Console.Section("Example 2: Comparing prices for a specific product")
		first := result.Products[0].Name
		c.Console.Comparison(first, c.Assistant.ComparePrices(ctx, first))
	}

	c.Console.Section("Example 3: Purchase simulation")
	c.Console.Warn("Note: This is a demo - no real purchase will be made")

	c.Console.Section("📊 Shopping Summary:")
	c.Console.Summary(c.Assistant.Summary())
	return ctx.Err()
}

var searchMax int

var searchCMD = &cobra.Command{
	Use:   "search <query>",
	Short: "Search products across the web",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
			c.Console.SearchResult(c.Assistant.Search(ctx, query, searchMax))
			return nil
		})
	},
}

var compareCMD = &cobra.Command{
	Use:   "compare <product>",
	Short: "Compare store prices for one product",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		product := strings.Join(args, " ")
		return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
			c.Console.Comparison(product, c.Assistant.ComparePrices(ctx, product))
			return nil
		})
	},
}

var (
	buyer   entity.UserInfo
	confirm bool
)

var purchaseCMD = &cobra.Command{
	Use:   "purchase <product-url>",
	Short: "Buy a product through a remote browser session",
	Long:  `Places a real order. Nothing is submitted unless --yes is given.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if buyer.Name == "" || buyer.Address == "" {
			return fmt.Errorf("--name and --address are required")
		}
		return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
			if !confirm {
				c.Console.Warn("Dry run: pass --yes to place a real order for " + args[0])
				return nil
			}
			c.Console.Purchase(c.Assistant.Purchase(ctx, args[0], buyer))
			return nil
		})
	},
}

var trackStore string

var trackCMD = &cobra.Command{
	Use:   "track <order-id>",
	Short: "Look up the status of an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if trackStore == "" {
			return fmt.Errorf("--store is required")
		}
		return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
			c.Console.Tracking(args[0], c.Assistant.TrackOrder(ctx, args[0], trackStore))
			return nil
		})
	},
}

var stopCMD = &cobra.Command{
	Use:   "stop <task-id>",
	Short: "Stop a running remote task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
			ack, err := c.Assistant.StopTask(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "⏹  Task %s stopped\n", ack.TaskID)
			return nil
		})
	},
}

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *di.Container) error {
			return c.HTTPServer().Run(ctx)
		})
	},
}

func init() {
	searchCMD.Flags().IntVarP(&searchMax, "max", "n", 0, "maximum number of products (default from config)")

	purchaseCMD.Flags().StringVar(&buyer.Name, "name", "", "buyer name")
	purchaseCMD.Flags().StringVar(&buyer.Address, "address", "", "shipping address")
	purchaseCMD.Flags().StringVar(&buyer.Email, "email", "", "contact email")
	purchaseCMD.Flags().BoolVarP(&confirm, "yes", "y", false, "actually place the order")

	trackCMD.Flags().StringVar(&trackStore, "store", "", "store website the order was placed on")

	rootCMD.AddCommand(demoCMD, searchCMD, compareCMD, purchaseCMD, trackCMD, stopCMD, serveCMD)
}
