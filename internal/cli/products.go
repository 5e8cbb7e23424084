package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/logger"
	"github.com/comigor/dermachat-go/pkg/tools"
)

var (
	productNoVideos bool
	productBuy      bool
	productPlay     string
	wishlistRemove  bool
)

var productCmd = &cobra.Command{
	Use:   "product <id>",
	Short: "Show a product with the creator videos that mention it",
	Long: `Show a product's details together with the creator videos that mention it.

With --buy the retailer link is printed instead; with --play the link of one of the
creator videos.

Examples:
  dermachat product 65f1c2a9
  dermachat product 65f1c2a9 -o json
  dermachat product 65f1c2a9 --buy
  dermachat product 65f1c2a9 --play dQw4w9WgXcQ`,
	Args: cobra.ExactArgs(1),
	RunE: runProduct,
}

var compareCmd = &cobra.Command{
	Use:   "compare <id> <id> [id...]",
	Short: "Compare products side by side",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCompare,
}

var videosCmd = &cobra.Command{
	Use:   "videos <id> [id...]",
	Short: "Summarize creator video mentions for products",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVideos,
}

var wishlistCmd = &cobra.Command{
	Use:   "wishlist <id>",
	Short: "Add a product to your wishlist",
	Long: `Add a product to your wishlist, or remove it with --remove. Wishlist changes
are kept in your activity log.`,
	Args: cobra.ExactArgs(1),
	RunE: runWishlist,
}

func init() {
	productCmd.Flags().BoolVar(&productNoVideos, "no-videos", false, "skip the creator videos")
	productCmd.Flags().BoolVar(&productBuy, "buy", false, "print the retailer link")
	productCmd.Flags().StringVar(&productPlay, "play", "", "print the link of the creator video with this id")
	productCmd.MarkFlagsMutuallyExclusive("buy", "play")
	productCmd.MarkFlagsMutuallyExclusive("no-videos", "play")

	wishlistCmd.Flags().BoolVar(&wishlistRemove, "remove", false, "remove instead of add")
}

// productDetails is what `product` prints.
type productDetails struct {
	Product *catalog.Product       `json:"product" yaml:"product"`
	Videos  *catalog.ProductVideos `json:"videos,omitempty" yaml:"videos,omitempty"`
}

func runProduct(cmd *cobra.Command, args []string) error {
	id := args[0]
	client := newClient(nil)
	tracker := newTracker(client)
	defer tracker.Wait()

	var details productDetails
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		p, err := client.Product(ctx, id)
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}
		details.Product = p
		return nil
	})
	if !productNoVideos {
		g.Go(func() error {
			v, err := client.ProductVideos(ctx, id)
			if err != nil {
				// Videos are optional; the product alone is still worth showing.
				logger.L.Warn("failed to load product videos", "product", id, "error", err)
				return nil
			}
			details.Videos = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tracker.ProductView(*details.Product, "/product/"+id)

	out := cmd.OutOrStdout()
	switch {
	case productBuy:
		if details.Product.SourceURL == "" {
			return fmt.Errorf("no retailer link for %s", id)
		}
		tracker.PurchaseIntent(*details.Product)
		fmt.Fprintln(out, details.Product.SourceURL)
		return nil
	case productPlay != "":
		v, err := findVideo(details.Videos, productPlay)
		if err != nil {
			return err
		}
		tracker.VideoClick(id, v.VideoID, v.ChannelTitle)
		fmt.Fprintln(out, v.VideoURL)
		return nil
	}
	return printValue(out, details)
}

func findVideo(videos *catalog.ProductVideos, videoID string) (catalog.Video, error) {
	if videos == nil {
		return catalog.Video{}, errors.New("creator videos are unavailable")
	}
	for _, v := range videos.Videos {
		if v.VideoID == videoID {
			return v, nil
		}
	}
	return catalog.Video{}, fmt.Errorf("no video %q for product %s", videoID, videos.ProductID)
}

func runVideos(cmd *cobra.Command, args []string) error {
	raw, err := newClient(nil).VideosSummary(cmd.Context(), tools.SplitIDs(strings.Join(args, ",")))
	if err != nil {
		return fmt.Errorf("videos summary: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode videos summary: %w", err)
	}
	return printValue(cmd.OutOrStdout(), v)
}

func runWishlist(cmd *cobra.Command, args []string) error {
	client := newClient(nil)
	tracker := newTracker(client)
	defer tracker.Wait()

	p, err := client.Product(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	tracker.Wishlist(*p, !wishlistRemove)
	if wishlistRemove {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from your wishlist.\n", p.Title())
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s to your wishlist.\n", p.Title())
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	ids := tools.SplitIDs(strings.Join(args, ","))
	client := newClient(nil)
	tracker := newTracker(client)
	defer tracker.Wait()

	res, err := client.Compare(cmd.Context(), ids)
	if err != nil {
		return fmt.Errorf("compare products: %w", err)
	}
	tracker.CompareView(ids)
	fmt.Fprint(cmd.OutOrStdout(), tools.FormatComparison(res))
	return nil
}
