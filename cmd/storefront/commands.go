package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/arisrestaurant/food-delivery/cart"
	"github.com/arisrestaurant/food-delivery/storefront"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        storefront.Config

	contactFlags cart.Contact
	promoFlag    string
	noTrack      bool
	ratingFlag   int

	rootCmd = &cobra.Command{
		Use:          "storefront",
		Short:        "Browse the menu, manage your cart and place orders",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = storefront.LoadConfig(configPath)
			return err
		},
	}

	menuCmd = &cobra.Command{
		Use:   "menu",
		Short: "List the menu (bundled dishes plus what the restaurant has added)",
		Args:  cobra.NoArgs,
		RunE:  runMenu,
	}

	cartCmd = &cobra.Command{
		Use:   "cart",
		Short: "Manage the cart",
	}
	cartAddCmd = &cobra.Command{
		Use:   "add [item id or name]...",
		Short: "Add one of each item to the cart",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCartAdjust(true),
	}
	cartRemoveCmd = &cobra.Command{
		Use:   "remove [item id or name]...",
		Short: "Remove one of each item from the cart",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCartAdjust(false),
	}
	cartShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show cart lines and totals",
		Args:  cobra.NoArgs,
		RunE:  runCartShow,
	}
	cartClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE:  runCartClear,
	}

	promoCmd = &cobra.Command{
		Use:   "promo [code]",
		Short: "Preview the totals with a promo code",
		Args:  cobra.ExactArgs(1),
		RunE:  runPromo,
	}

	checkoutCmd = &cobra.Command{
		Use:   "checkout",
		Short: "Place the order and follow its delivery",
		Args:  cobra.NoArgs,
		RunE:  runCheckout,
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Poll the menu and print new dishes as they appear",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "storefront.yaml", "path to the YAML config file")

	cartCmd.AddCommand(cartAddCmd, cartRemoveCmd, cartShowCmd, cartClearCmd)

	f := checkoutCmd.Flags()
	f.StringVar(&contactFlags.FirstName, "first-name", "", "first name")
	f.StringVar(&contactFlags.LastName, "last-name", "", "last name")
	f.StringVar(&contactFlags.Email, "email", "", "email address")
	f.StringVar(&contactFlags.Street, "street", "", "street address")
	f.StringVar(&contactFlags.City, "city", "", "city")
	f.StringVar(&contactFlags.State, "state", "", "state")
	f.StringVar(&contactFlags.ZipCode, "zip", "", "zip code")
	f.StringVar(&contactFlags.Country, "country", "", "country")
	f.StringVar(&contactFlags.Phone, "phone", "", "phone number")
	f.StringVar(&contactFlags.PaymentMethod, "payment", "card", "payment method")
	f.StringVar(&promoFlag, "promo", "", "promo code to apply")
	f.BoolVar(&noTrack, "no-track", false, "do not follow the delivery")
	f.IntVar(&ratingFlag, "rating", 0, "rate the delivered order, 1 to 5")

	rootCmd.AddCommand(menuCmd, cartCmd, promoCmd, checkoutCmd, watchCmd)
}

// openStore builds the store from cfg, restores the saved cart and makes one
// attempt to fetch the server menu.
func openStore(ctx context.Context) (*storefront.Store, error) {
	client := storefront.NewAPIClient(cfg.APIURL, 0)

	opts := cart.DefaultOptions()
	opts.DeliveryFee = cfg.DeliveryFee

	store, err := storefront.NewStore(client, storefront.NewFileCartStore(cfg.CartFile), cart.NewSession(opts), storefront.Options{
		PollInterval: cfg.PollInterval,
		Token:        cfg.Token,
		Syncer:       client,
		Watcher:      client,
	})
	if err != nil {
		return nil, err
	}

	if err := store.LoadCart(); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.Refresh(ctx); err != nil {
		utils.InfoLogger.Warn("Menu server unavailable, showing bundled dishes only")
	}
	return store, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runMenu(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tIN CART")
	sess := store.Session()
	for _, it := range store.Items() {
		qty := ""
		if n := sess.Quantity(it.ID); n > 0 {
			qty = fmt.Sprintf("x%d", n)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Name, it.Category, utils.FormatRupees(it.Price), qty)
	}
	return w.Flush()
}

func runCartAdjust(add bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		sess := store.Session()
		for _, query := range args {
			it, ok := store.FindItem(query)
			if !ok {
				return fmt.Errorf("no dish matches %q", query)
			}
			if add {
				err = sess.Add(it.ID)
			} else {
				err = sess.Remove(it.ID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d in cart\n", it.Name, sess.Quantity(it.ID))
		}
		return nil
	}
}

func runCartShow(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	printCart(cmd.OutOrStdout(), store)
	return nil
}

func runCartClear(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Session().Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared")
	return nil
}

func runPromo(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	promo, err := store.Session().ApplyPromo(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Promo code applied! %g%% discount\n\n", promo.Percent)
	printCart(cmd.OutOrStdout(), store)
	fmt.Fprintln(cmd.OutOrStdout(), "\nPass --promo to checkout to use it on your order.")
	return nil
}

func printCart(out io.Writer, store *storefront.Store) {
	st := store.Session().State()
	if len(st.Items) == 0 {
		fmt.Fprintln(out, "Your cart is empty")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tQTY\tPRICE\tAMOUNT")
	ids := make([]string, 0, len(st.Items))
	for id := range st.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		qty := st.Items[id]
		it, ok := store.FindItem(id)
		if !ok {
			fmt.Fprintf(w, "%s\t%d\t-\t(no longer on the menu)\n", id, qty)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", it.Name, qty, utils.FormatRupees(it.Price), utils.FormatRupees(it.Price*float64(qty)))
	}
	w.Flush()

	t := store.Totals()
	fmt.Fprintf(out, "\nSubtotal:      %s\n", utils.FormatRupees(t.Subtotal))
	fmt.Fprintf(out, "Delivery fee:  %s\n", utils.FormatRupees(t.DeliveryFee))
	if t.Discount > 0 {
		fmt.Fprintf(out, "Discount (%g%%): -%s\n", t.DiscountPercent, utils.FormatRupees(t.Discount))
	}
	fmt.Fprintf(out, "Total:         %s\n", utils.FormatRupees(t.Total))
}

// checkoutContact fills blank flags from the config file.
func checkoutContact() cart.Contact {
	c := contactFlags
	def := cfg.Contact
	pick := func(flag, fallback string) string {
		if strings.TrimSpace(flag) != "" {
			return flag
		}
		return fallback
	}
	c.FirstName = pick(c.FirstName, def.FirstName)
	c.LastName = pick(c.LastName, def.LastName)
	c.Email = pick(c.Email, def.Email)
	c.Street = pick(c.Street, def.Street)
	c.City = pick(c.City, def.City)
	c.State = pick(c.State, def.State)
	c.ZipCode = pick(c.ZipCode, def.ZipCode)
	c.Country = pick(c.Country, def.Country)
	c.Phone = pick(c.Phone, def.Phone)
	return c
}

func runCheckout(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	sess := store.Session()

	if err := sess.BeginCheckout(store.Prices()); err != nil {
		if errors.Is(err, cart.ErrEmptyCart) {
			return fmt.Errorf("your cart is empty, add something with `storefront cart add`")
		}
		return err
	}
	if promoFlag != "" {
		if _, err := sess.ApplyPromo(promoFlag); err != nil {
			return err
		}
	}

	order, err := sess.PlaceOrder(checkoutContact(), store.Prices())
	if err != nil {
		_ = sess.BackToCart()
		var missing *cart.MissingFieldsError
		if errors.As(err, &missing) {
			return fmt.Errorf("please fill in all required fields: --%s", strings.Join(flagNames(missing.Fields), ", --"))
		}
		return err
	}
	// leaving the command always finishes the order, which empties the cart
	defer func() { _ = sess.NewOrder() }()

	fmt.Fprintf(out, "Order placed successfully! Order %s, total %s\n", order.Label, utils.FormatRupees(order.Totals.Total))
	if noTrack {
		return nil
	}

	unsubscribe := sess.Subscribe(func(ev cart.Event) {
		if ev.Kind == cart.StageAdvanced {
			stage := cart.Stages[ev.State.Stage]
			fmt.Fprintf(out, "[%d/%d] %s: %s (about %d min left)\n", ev.State.Stage, cart.FinalStage, stage.Title, stage.Description, ev.State.ETA)
		}
	})
	defer unsubscribe()

	if err := sess.StartTracking(ctx); err != nil {
		return err
	}
	first := cart.Stages[0]
	fmt.Fprintf(out, "[0/%d] %s: %s (about %d min left)\n", cart.FinalStage, first.Title, first.Description, sess.State().ETA)

	<-sess.TrackingDone()
	if sess.Phase() != cart.Delivered {
		fmt.Fprintln(out, "Stopped following the order")
		return nil
	}

	if ratingFlag != 0 {
		if err := sess.Rate(ratingFlag); err != nil {
			return err
		}
		fmt.Fprintf(out, "Thanks for rating your order %d/5\n", ratingFlag)
	}
	return nil
}

var contactFlagNames = map[string]string{
	"firstName": "first-name",
	"lastName":  "last-name",
	"email":     "email",
	"street":    "street",
	"city":      "city",
	"phone":     "phone",
}

func flagNames(fields []string) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = contactFlagNames[f]
	}
	return names
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %s every %s (Ctrl-C to stop), %d dishes on the menu\n", cfg.APIURL, cfg.PollInterval, len(store.Items()))

	unsubscribe := store.Subscribe(func(ev storefront.Event) {
		switch ev.Kind {
		case storefront.CatalogUpdated:
			for _, it := range ev.Added {
				fmt.Fprintf(out, "New dish added: %s (%s)\n", it.Name, utils.FormatRupees(it.Price))
			}
		case storefront.FetchFailed:
			fmt.Fprintf(out, "Failed to load new items: %v\n", ev.Err)
		}
	})
	defer unsubscribe()

	store.Run(ctx)
	return nil
}
