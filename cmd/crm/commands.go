package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/amdadul/brandstore-crm/internal/api"
	"github.com/amdadul/brandstore-crm/internal/auth"
	"github.com/amdadul/brandstore-crm/internal/feed"
	"github.com/amdadul/brandstore-crm/internal/model"
	"github.com/amdadul/brandstore-crm/internal/otp"
	"github.com/amdadul/brandstore-crm/internal/report"
	"github.com/amdadul/brandstore-crm/internal/scan"
	"github.com/amdadul/brandstore-crm/internal/validate"
)

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func (a *app) requireLogin() error {
	if !a.session.Status().LoggedIn {
		return auth.ErrNotLoggedIn
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", st.UserName, st.Role)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	err := a.session.Logout(ctx)
	if errors.Is(err, auth.ErrRemoteLogout) {
		fmt.Fprintf(a.out, "Logged out locally (%v)\n", err)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) status() error {
	st := a.session.Status()
	if !st.LoggedIn {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "Logged in as %s\nRole: %s\n", st.UserName, st.Role)
	return nil
}

func (a *app) dashboard(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	sales := a.client.TotalSales(ctx)
	if err := sales.Err(); err != nil {
		return err
	}
	stock := a.client.TotalStock(ctx)
	if err := stock.Err(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total sales: %s\nTotal stock: %s\n", sales.Data, stock.Data)
	return nil
}

func (a *app) stores(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	res := a.client.StoreList(ctx)
	if err := res.Err(); err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, s := range res.Data {
		fmt.Fprintf(w, "%s\t%s\n", s.ID, s.Name)
	}
	return w.Flush()
}

// loadPages pulls up to pages pages into f.
func loadPages[T any](ctx context.Context, args []string, name string, f *feed.Feed[T]) (feed.State[T], error) {
	fs := newFlags(name)
	pages := fs.Int("pages", 1, "number of pages to load")
	if err := fs.Parse(args); err != nil {
		return feed.State[T]{}, err
	}
	for i := 0; i < *pages && f.HasMore(); i++ {
		if _, err := f.LoadMore(ctx); err != nil {
			return feed.State[T]{}, err
		}
	}
	return f.Snapshot(), nil
}

func (a *app) stockList(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	st, err := loadPages(ctx, args, "stock", feed.New[model.StockItem](a.client.StockList))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tSTOCK")
	for _, item := range st.Items {
		fmt.Fprintf(w, "%s\t%d\n", item.ProductName, item.Stock)
	}
	fmt.Fprintf(w, "page %d of %d\n", st.CurrentPage, st.LastPage)
	return w.Flush()
}

func (a *app) stockUpdateList(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	st, err := loadPages(ctx, args, "stock-updates", feed.New[model.Invoice](a.client.StockUpdateList))
	if err != nil {
		return err
	}
	for _, inv := range st.Items {
		fmt.Fprintf(a.out, "%s  %s  qty %d\n", inv.OrderNo, inv.Date, inv.Quantity)
		printLines(a.out, inv.Details)
	}
	fmt.Fprintf(a.out, "page %d of %d\n", st.CurrentPage, st.LastPage)
	return nil
}

func (a *app) salesList(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	st, err := loadPages(ctx, args, "sales", feed.New[model.SaleRecord](a.client.SalesList))
	if err != nil {
		return err
	}
	for _, rec := range st.Items {
		fmt.Fprintf(a.out, "%s  %s  qty %d  %s %s\n", rec.OrderNo, rec.Date, rec.Quantity, rec.Name, rec.Phone)
		printLines(a.out, rec.Details)
	}
	fmt.Fprintf(a.out, "page %d of %d\n", st.CurrentPage, st.LastPage)
	return nil
}

func printLines(out io.Writer, lines []model.InvoiceLine) {
	for _, l := range lines {
		fmt.Fprintf(out, "    %s x%d  [%s]\n", l.ProductName, l.Quantity, strings.Join(l.Serials(), "] ["))
	}
}

// collectSerials seeds an accumulator with the -serial flag and then reads
// scanned codes, one per line, until EOF or an empty line.
func (a *app) collectSerials(initial string) (*scan.Accumulator, error) {
	acc := scan.New(func(code string) {
		fmt.Fprintf(a.out, "%s already scanned\n", code)
	})
	if initial != "" {
		acc.SetField(initial)
		return acc, nil
	}
	fmt.Fprintln(a.out, "Scan serial numbers (empty line to finish):")
	for {
		line, err := a.in.ReadString('\n')
		code := strings.TrimSpace(line)
		if code == "" {
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			break
		}
		acc.Add(code)
		if err != nil {
			break
		}
	}
	return acc, nil
}

func (a *app) stockUpdate(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	fs := newFlags("stock-update")
	serial := fs.String("serial", "", "comma separated serial numbers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	acc, err := a.collectSerials(*serial)
	if err != nil {
		return err
	}
	if err := validate.Serials(acc.Field()); err != nil {
		return err
	}
	res := a.client.StockUpdateCreate(ctx, api.StockUpdateRequest{SerialNo: acc.Field()})
	if err := res.Err(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Stock updated: %d unit(s)\n", acc.Len())
	return nil
}

func (a *app) sell(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	fs := newFlags("sell")
	name := fs.String("name", "", "customer name")
	phone := fs.String("phone", "", "customer phone (11 digits)")
	address := fs.String("address", "", "customer address")
	serial := fs.String("serial", "", "comma separated serial numbers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	acc, err := a.collectSerials(*serial)
	if err != nil {
		return err
	}
	if err := validate.Serials(acc.Field()); err != nil {
		return err
	}

	verified := a.client.SerialNoVerify(ctx, acc.Field())
	if err := verified.Err(); err != nil {
		return err
	}
	var serials []string
	for _, p := range verified.Data {
		fmt.Fprintf(a.out, "  %s x%d\n", p.ProductName, p.Quantity)
		serials = append(serials, model.SplitSerials(p.SerialNo)...)
	}

	req := api.SaleRequest{
		Name:     strings.TrimSpace(*name),
		Phone:    strings.TrimSpace(*phone),
		Address:  strings.TrimSpace(*address),
		SerialNo: model.JoinSerials(serials),
	}
	if err := validate.Sale(req.Name, req.Phone, req.SerialNo); err != nil {
		return err
	}
	res := a.client.SalesCreate(ctx, req)
	if err := res.Err(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Sale recorded: %d unit(s)\n", len(serials))
	return nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) changePassword(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	fs := newFlags("change-password")
	form := otp.ChangePasswordForm{}
	fs.StringVar(&form.OldPassword, "old", "", "current password")
	fs.StringVar(&form.Password, "new", "", "new password")
	fs.StringVar(&form.Confirm, "confirm", "", "new password again")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow := otp.NewChangePassword(a.client, a.session.Phone)
	if err := flow.RequestOtp(ctx, form); err != nil {
		return err
	}
	for {
		code, err := a.prompt("OTP sent to your phone. Enter OTP: ")
		if err != nil {
			return err
		}
		err = flow.ConfirmAndCommit(ctx, code, form)
		if err == nil {
			break
		}
		if code == "" {
			return err
		}
		fmt.Fprintf(a.out, "%v\n", err)
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

func (a *app) forgotPassword(ctx context.Context, args []string) error {
	fs := newFlags("forgot-password")
	form := otp.ForgotPasswordForm{}
	fs.StringVar(&form.Phone, "phone", "", "account phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow := otp.NewForgotPassword(a.client)
	if err := flow.RequestOtp(ctx, form); err != nil {
		return err
	}
	code, err := a.prompt("Enter OTP: ")
	if err != nil {
		return err
	}
	if err := flow.Verify(ctx, code, form); err != nil {
		return err
	}
	if form.Password, err = a.prompt("New password: "); err != nil {
		return err
	}
	if form.Confirm, err = a.prompt("Confirm password: "); err != nil {
		return err
	}
	if err := flow.Commit(ctx, form); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password reset, you can log in now")
	return nil
}

func (a *app) report(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("report needs a kind: sales or stock")
	}
	kind, args := args[0], args[1:]

	fs := newFlags("report " + kind)
	start := fs.String("start", "", "start date YYYY-MM-DD")
	end := fs.String("end", "", "end date YYYY-MM-DD")
	storeID := fs.String("store", "", "store id; empty for all stores")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sel, err := a.selectStore(ctx, *storeID)
	if err != nil {
		return err
	}
	svc := report.NewService(a.client, a.cfg.ReportDir)

	var saved report.Saved
	switch kind {
	case "sales":
		saved, err = svc.Sales(ctx, *start, *end, sel)
	case "stock":
		saved, err = svc.Stock(ctx, sel)
	default:
		return fmt.Errorf("unknown report %q", kind)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s (%d rows)\n", saved.Path, saved.Rows)
	return nil
}

// selectStore resolves a store id against the dropdown; empty means all stores.
func (a *app) selectStore(ctx context.Context, id string) (*report.Selection, error) {
	if id == model.AllStores {
		sel := report.AllStores
		return &sel, nil
	}
	res := a.client.StoreList(ctx)
	if err := res.Err(); err != nil {
		return nil, err
	}
	for _, s := range res.Data {
		if s.ID.String() == id {
			return &report.Selection{ID: id, Label: s.Name}, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q", id)
}
