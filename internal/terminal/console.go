// internal/terminal/console.go
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/ammerola/minimarket-pos/internal/adapters/notify"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/core/services"
)

const prompt = "> "

// Console is a line-oriented cashier front-end. A line starting with ':' is
// a command typed into a text field, so the scanner ignores it. Any other
// line is replayed as scanner keystrokes followed by Enter.
type Console struct {
	cart     *services.CartEngine
	checkout *services.Checkout
	catalog  *services.Catalog
	scanner  *services.ScanAdapter
	logger   *slog.Logger

	in    *bufio.Scanner
	outMu sync.Mutex
	out   io.Writer
}

// NewConsole binds a console to the terminal services. Notifications shown
// by toaster are echoed to out.
func NewConsole(cart *services.CartEngine, checkout *services.Checkout, catalog *services.Catalog,
	scanner *services.ScanAdapter, toaster *notify.Toaster, in io.Reader, out io.Writer, logger *slog.Logger) *Console {
	c := &Console{
		cart:     cart,
		checkout: checkout,
		catalog:  catalog,
		scanner:  scanner,
		logger:   logger.With(slog.String("component", "console")),
		in:       bufio.NewScanner(in),
		out:      out,
	}
	// Runs under the cart lock; printf must stay the only thing it does.
	cart.Subscribe(ports.CartObserverFunc(func(lines []domain.CartLine) {
		c.printf("✓ cart updated (%d items)\n", domain.ComputeCount(lines))
	}))
	if toaster != nil {
		toaster.OnChange(func(ev notify.Event) {
			if ev.Kind == notify.EventShown {
				n := ev.Notification
				c.printf("[%s] %s: %s\n", n.Category, n.Title, n.Message)
			}
		})
	}
	return c
}

// Run processes input until EOF, :quit or ctx is done
func (c *Console) Run(ctx context.Context) error {
	c.printf("minimarket POS. %d products loaded. Type :help for commands.\n", len(c.catalog.Products()))

	for {
		c.printf(prompt)
		line, ok := c.readLine()
		if !ok {
			return c.in.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, ":") {
			c.scan(ctx, line)
			continue
		}

		quit, err := c.command(ctx, line[1:])
		if err != nil {
			c.printf("error: %s\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Confirm asks a yes/no question on the console
func (c *Console) Confirm(_ context.Context, question string) bool {
	c.printf("%s [y/N] ", question)
	answer, ok := c.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

// scan feeds a line to the scanner. Stock and lookup problems have already
// been shown as notifications.
func (c *Console) scan(ctx context.Context, line string) {
	err := c.scanner.Scan(ctx, line)
	if err != nil && !notified(err) {
		c.printf("error: %s\n", err)
	}
	if err == nil {
		c.printCartSummary()
	}
}

func (c *Console) command(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "q", "quit", "exit":
		return true, nil

	case "h", "help":
		c.printHelp()

	case "add", "inc", "dec", "rm":
		id, err := productArg(args)
		if err != nil {
			return false, err
		}
		switch name {
		case "add":
			err = c.cart.AddItem(ctx, id)
		case "inc":
			err = c.cart.ChangeQuantity(ctx, id, 1)
		case "dec":
			err = c.cart.ChangeQuantity(ctx, id, -1)
		case "rm":
			err = c.cart.RemoveItem(ctx, id)
		}
		if err != nil && !notified(err) {
			return false, err
		}
		c.printCart()

	case "cart":
		c.printCart()

	case "products", "p":
		c.printProducts(strings.Join(args, " "))

	case "reload":
		if err := c.catalog.Reload(ctx); err == nil {
			c.printf("%d products loaded\n", len(c.catalog.Products()))
		}

	case "method":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: :method cash|card|transfer")
		}
		m, err := domain.ParsePaymentMethod(args[0])
		if err != nil {
			return false, err
		}
		if err := c.checkout.SetPaymentMethod(m); err != nil {
			return false, err
		}
		c.printf("payment method: %s\n", m)

	case "pay":
		pending, err := c.checkout.OpenPayment(ctx)
		if err != nil {
			if notified(err) {
				return false, nil
			}
			return false, err
		}
		c.printf("total to pay: %s (%s)\n", domain.FormatCLP(pending.Total), c.checkout.PaymentMethod())

	case "tender":
		amount, err := amountArg(args)
		if err != nil {
			return false, err
		}
		pending, err := c.checkout.Tender(amount)
		if err != nil {
			return false, err
		}
		c.printf("received %s, change %s, confirm %s\n",
			domain.FormatCLP(pending.CashReceived), domain.FormatCLP(pending.ChangeDue), enabled(pending.CanConfirm()))

	case "confirm":
		amount, err := c.confirmAmount(args)
		if err != nil {
			return false, err
		}
		result, err := c.checkout.ConfirmPayment(ctx, amount)
		if err != nil {
			if notified(err) {
				return false, nil
			}
			return false, err
		}
		c.printf("sale %s recorded\n", result.SaleID)

	case "back":
		return false, c.checkout.CancelPayment(ctx)

	case "cancel":
		err := c.checkout.CancelSale(ctx, c)
		switch {
		case errors.Is(err, domain.ErrSaleNotConfirmed):
			c.printf("sale kept\n")
		case errors.Is(err, domain.ErrInvalidState):
			return false, fmt.Errorf("nothing to cancel")
		case err != nil:
			return false, err
		}

	default:
		return false, fmt.Errorf("unknown command %q, type :help", name)
	}

	return false, nil
}

// confirmAmount uses the given amount, or what was tendered so far
func (c *Console) confirmAmount(args []string) (int64, error) {
	if len(args) > 0 {
		return amountArg(args)
	}
	pending, ok := c.checkout.Pending()
	if !ok {
		return 0, domain.ErrInvalidState
	}
	return pending.CashReceived, nil
}

func (c *Console) printCart() {
	lines := c.cart.Lines()
	if len(lines) == 0 {
		c.printf("cart is empty\n")
		return
	}

	c.outMu.Lock()
	defer c.outMu.Unlock()

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tProduct\tQty\tPrice\tSubtotal\t")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t\n",
			l.ProductID, l.Name, l.Quantity, domain.FormatCLP(l.UnitPrice), domain.FormatCLP(l.Subtotal()))
	}
	fmt.Fprintf(tw, "\tTotal\t%d\t\t%s\t\n", domain.ComputeCount(lines), domain.FormatCLP(domain.ComputeTotal(lines)))
	_ = tw.Flush()
}

func (c *Console) printCartSummary() {
	c.printf("%d items, total %s\n", c.cart.Count(), domain.FormatCLP(c.cart.Total()))
}

func (c *Console) printProducts(term string) {
	products := c.catalog.Search(term)
	if len(products) == 0 {
		c.printf("no products\n")
		return
	}

	c.outMu.Lock()
	defer c.outMu.Unlock()

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCode\tProduct\tPrice\tStock")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", p.ID, p.Code, p.Name, domain.FormatCLP(p.UnitPrice), p.AvailableStock)
	}
	_ = tw.Flush()
}

func (c *Console) printHelp() {
	c.printf(`Scan a code by typing it and pressing Enter.
  :add <id>  :inc <id>  :dec <id>  :rm <id>   change the cart
  :cart                                     show the cart
  :products [term]                          list or search products
  :reload                                   reload products
  :method cash|card|transfer                payment method
  :pay                                      open payment
  :tender <amount>                          amount received, shows change
  :confirm [amount]                         record the sale
  :back                                     close payment, keep the cart
  :cancel                                   empty the cart
  :quit
`)
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// notified reports errors the services already surfaced as notifications
func notified(err error) bool {
	return errors.Is(err, domain.ErrStockInsufficient) ||
		errors.Is(err, domain.ErrLookupMiss) ||
		errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrServiceRejection) ||
		errors.Is(err, domain.ErrCommunicationFault)
}

func productArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one product id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", args[0])
	}
	return id, nil
}

// amountArg parses whole pesos, accepting $ and dot thousands separators
func amountArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one amount")
	}
	raw := strings.NewReplacer("$", "", ".", "", ",", "").Replace(args[0])
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount < 0 {
		return 0, fmt.Errorf("invalid amount %q", args[0])
	}
	return amount, nil
}

func enabled(ok bool) string {
	if ok {
		return "enabled"
	}
	return "disabled"
}
