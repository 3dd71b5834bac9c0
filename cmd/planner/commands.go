package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/wanderplan/wanderplan/internal/feedback"
	"github.com/wanderplan/wanderplan/internal/geo"
	"github.com/wanderplan/wanderplan/internal/places"
	"github.com/wanderplan/wanderplan/internal/plans"
	"github.com/wanderplan/wanderplan/internal/result"
	"github.com/wanderplan/wanderplan/internal/session"
	"github.com/wanderplan/wanderplan/internal/user"
	"github.com/wanderplan/wanderplan/internal/wallet"
)

type command struct {
	help string
	run  func(ctx context.Context, c *client, args []string) int
}

var commands = map[string]command{
	"login":           {"sign in with -u USER -p PASSWORD", cmdLogin},
	"google-login":    {"sign in with a Google id token", cmdGoogleLogin},
	"register":        {"create an account", cmdRegister},
	"logout":          {"sign out and forget stored credentials", cmdLogout},
	"refresh":         {"trade the refresh token for a new access token", cmdRefresh},
	"whoami":          {"print the signed-in user", cmdWhoami},
	"places":          {"list places", cmdPlaces},
	"place":           {"show one place by id", cmdPlace},
	"favorite":        {"toggle a place in your favourites", cmdFavorite},
	"favorites":       {"list favourite places", cmdFavorites},
	"plan":            {"generate a travel plan", cmdPlan},
	"plans":           {"list saved plans", cmdPlans},
	"plan-show":       {"show a saved plan by id", cmdPlanShow},
	"plan-delete":     {"delete a saved plan", cmdPlanDelete},
	"balance":         {"show the wallet balance", cmdBalance},
	"top-up":          {"add funds to the wallet", cmdTopUp},
	"pay":             {"pay from the wallet", cmdPay},
	"transactions":    {"list wallet transactions", cmdTransactions},
	"premium":         {"buy a premium subscription", cmdPremium},
	"review":          {"review a place", cmdReview},
	"reviews":         {"list reviews of a place", cmdReviews},
	"upload":          {"upload image files", cmdUpload},
	"profile":         {"show the backend profile", cmdProfile},
	"profile-update":  {"edit profile fields", cmdProfileUpdate},
	"change-password": {"change the account password", cmdChangePassword},
	"geocode":         {"look up coordinates for an address", cmdGeocode},
	"route":           {"driving route between two lat,lon points", cmdRoute},
	"weather":         {"current weather at a lat,lon point", cmdWeather},
	"tile":            {"print the map tile URL for z x y", cmdTile},
}

func parse(c *client, name string, args []string, define func(fs *flag.FlagSet)) (*flag.FlagSet, bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	if define != nil {
		define(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, false
	}
	return fs, true
}

func pageFlags(fs *flag.FlagSet, q *result.PageQuery) {
	fs.IntVar(&q.Page, "page", 1, "page number, starting at 1")
	fs.IntVar(&q.Size, "size", result.DefaultPageSize, "page size")
}

func oneArg(c *client, fs *flag.FlagSet, what string) (string, bool) {
	if fs.NArg() != 1 {
		fmt.Fprintf(c.errOut, "expected exactly one %s\n", what)
		return "", false
	}
	return fs.Arg(0), true
}

func cmdLogin(ctx context.Context, c *client, args []string) int {
	var creds session.Credentials
	if _, ok := parse(c, "login", args, func(fs *flag.FlagSet) {
		fs.StringVar(&creds.Username, "u", "", "username or email")
		fs.StringVar(&creds.Password, "p", "", "password")
	}); !ok {
		return 2
	}
	return emit(c, c.session.Login(ctx, creds))
}

func cmdGoogleLogin(ctx context.Context, c *client, args []string) int {
	fs, ok := parse(c, "google-login", args, nil)
	if !ok {
		return 2
	}
	token, ok := oneArg(c, fs, "id token")
	if !ok {
		return 2
	}
	return emit(c, c.session.LoginWithGoogle(ctx, token))
}

func cmdRegister(ctx context.Context, c *client, args []string) int {
	var reg session.Registration
	if _, ok := parse(c, "register", args, func(fs *flag.FlagSet) {
		fs.StringVar(&reg.Email, "email", "", "email address")
		fs.StringVar(&reg.Password, "p", "", "password")
		fs.StringVar(&reg.Name, "name", "", "display name")
		fs.StringVar(&reg.Phone, "phone", "", "phone number")
	}); !ok {
		return 2
	}
	return emit(c, c.session.Register(ctx, reg))
}

func cmdLogout(ctx context.Context, c *client, _ []string) int {
	return emit(c, c.session.Logout(ctx))
}

func cmdRefresh(ctx context.Context, c *client, _ []string) int {
	env := c.session.Refresh(ctx)
	// Print only whether it worked; the token itself stays in the store.
	return emit(c, result.Map(env, func(string) string { return "refreshed" }))
}

func cmdWhoami(_ context.Context, c *client, _ []string) int {
	u, ok := c.session.User()
	if !ok {
		fmt.Fprintln(c.errOut, "not signed in")
		return 1
	}
	return emit(c, result.OK(u))
}

func cmdPlaces(ctx context.Context, c *client, args []string) int {
	var q places.ListQuery
	if _, ok := parse(c, "places", args, func(fs *flag.FlagSet) {
		fs.StringVar(&q.Search, "search", "", "name or address filter")
		fs.StringVar(&q.Category, "category", "", "category filter")
		fs.StringVar(&q.City, "city", "", "city filter")
		pageFlags(fs, &q.PageQuery)
	}); !ok {
		return 2
	}
	return emit(c, c.places.List(ctx, q))
}

func cmdPlace(ctx context.Context, c *client, args []string) int {
	fs, ok := parse(c, "place", args, nil)
	if !ok {
		return 2
	}
	id, ok := oneArg(c, fs, "place id")
	if !ok {
		return 2
	}
	return emit(c, c.places.Get(ctx, id))
}

func cmdFavorite(ctx context.Context, c *client, args []string) int {
	fs, ok := parse(c, "favorite", args, nil)
	if !ok {
		return 2
	}
	id, ok := oneArg(c, fs, "place id")
	if !ok {
		return 2
	}
	return emit(c, c.places.ToggleFavorite(ctx, id))
}

func cmdFavorites(ctx context.Context, c *client, _ []string) int {
	return emit(c, c.places.Favorites(ctx))
}

func cmdPlan(ctx context.Context, c *client, args []string) int {
	var (
		req       plans.GenerateRequest
		interests string
		assistant bool
	)
	if _, ok := parse(c, "plan", args, func(fs *flag.FlagSet) {
		fs.StringVar(&req.Destination, "dest", "", "destination city")
		fs.StringVar(&req.Origin, "from", "", "origin city")
		fs.StringVar(&req.StartDate, "start", "", "start date, YYYY-MM-DD")
		fs.IntVar(&req.Days, "days", 3, "trip length in days")
		fs.Int64Var(&req.Budget, "budget", 0, "total budget, 0 for none")
		fs.IntVar(&req.Travelers, "travelers", 1, "number of travellers")
		fs.StringVar(&interests, "interests", "", "comma separated interests")
		fs.StringVar(&req.Prompt, "prompt", "", "free-form request for the planner")
		fs.BoolVar(&assistant, "assistant", false, "use the assistant planner")
	}); !ok {
		return 2
	}
	req.Interests = splitList(interests)
	if assistant {
		return emit(c, c.plans.GenerateWithAssistant(ctx, req))
	}
	return emit(c, c.plans.Generate(ctx, req))
}

func cmdPlans(ctx context.Context, c *client, args []string) int {
	var q result.PageQuery
	if _, ok := parse(c, "plans", args, func(fs *flag.FlagSet) { pageFlags(fs, &q) }); !ok {
		return 2
	}
	return emit(c, c.plans.List(ctx, q))
}

func cmdPlanShow(ctx context.Context, c *client, args []string) int {
	fs, ok := parse(c, "plan-show", args, nil)
	if !ok {
		return 2
	}
	id, ok := oneArg(c, fs, "plan id")
	if !ok {
		return 2
	}
	return emit(c, c.plans.Get(ctx, id))
}

func cmdPlanDelete(ctx context.Context, c *client, args []string) int {
	fs, ok := parse(c, "plan-delete", args, nil)
	if !ok {
		return 2
	}
	id, ok := oneArg(c, fs, "plan id")
	if !ok {
		return 2
	}
	return emit(c, c.plans.Delete(ctx, id))
}

func cmdBalance(ctx context.Context, c *client, _ []string) int {
	return emit(c, c.wallet.Balance(ctx))
}

func cmdTopUp(ctx context.Context, c *client, args []string) int {
	var req wallet.TopUpRequest
	if _, ok := parse(c, "top-up", args, func(fs *flag.FlagSet) {
		fs.Int64Var(&req.Amount, "amount", 0, "amount to add")
		fs.StringVar(&req.Method, "method", "card", "funding method")
		fs.StringVar(&req.IdempotencyKey, "key", "", "idempotency key, generated when empty")
	}); !ok {
		return 2
	}
	return emit(c, c.wallet.TopUp(ctx, req))
}

func cmdPay(ctx context.Context, c *client, args []string) int {
	var req wallet.PaymentRequest
	if _, ok := parse(c, "pay", args, func(fs *flag.FlagSet) {
		fs.Int64Var(&req.Amount, "amount", 0, "amount to pay")
		fs.StringVar(&req.Description, "desc", "", "description")
		fs.StringVar(&req.PlanID, "plan", "", "plan being paid for")
		fs.StringVar(&req.IdempotencyKey, "key", "", "idempotency key, generated when empty")
	}); !ok {
		return 2
	}
	return emit(c, c.wallet.Pay(ctx, req))
}

func cmdTransactions(ctx context.Context, c *client, args []string) int {
	var q result.PageQuery
	if _, ok := parse(c, "transactions", args, func(fs *flag.FlagSet) { pageFlags(fs, &q) }); !ok {
		return 2
	}
	return emit(c, c.wallet.Transactions(ctx, q))
}

func cmdPremium(ctx context.Context, c *client, _ []string) int {
	env := c.wallet.PurchasePremium(ctx)
	if env.Success && !env.Data.User.IsZero() {
		c.session.SetUser(ctx, env.Data.User)
	}
	return emit(c, env)
}

func cmdReview(ctx context.Context, c *client, args []string) int {
	var (
		req    feedback.CreateReviewRequest
		images string
	)
	if _, ok := parse(c, "review", args, func(fs *flag.FlagSet) {
		fs.StringVar(&req.PlaceID, "place", "", "place id")
		fs.IntVar(&req.Rating, "rating", 5, "rating from 1 to 5")
		fs.StringVar(&req.Comment, "comment", "", "review text")
		fs.StringVar(&images, "images", "", "comma separated uploaded image ids")
	}); !ok {
		return 2
	}
	req.Images = splitList(images)
	return emit(c, c.feedback.Create(ctx, req))
}

func cmdReviews(ctx context.Context, c *client, args []string) int {
	var q result.PageQuery
	fs, ok := parse(c, "reviews", args, func(fs *flag.FlagSet) { pageFlags(fs, &q) })
	if !ok {
		return 2
	}
	id, ok := oneArg(c, fs, "place id")
	if !ok {
		return 2
	}
	return emit(c, c.feedback.ListByPlace(ctx, id, q))
}

func cmdUpload(ctx context.Context, c *client, args []string) int {
	fs, ok := parse(c, "upload", args, nil)
	if !ok {
		return 2
	}
	return emit(c, c.gallery.Upload(ctx, fs.Args()))
}

func cmdProfile(ctx context.Context, c *client, _ []string) int {
	env := c.users.Profile(ctx)
	if env.Success {
		c.session.SetUser(ctx, env.Data)
	}
	return emit(c, env)
}

func cmdProfileUpdate(ctx context.Context, c *client, args []string) int {
	var req user.UpdateProfileRequest
	if _, ok := parse(c, "profile-update", args, func(fs *flag.FlagSet) {
		fs.StringVar(&req.Name, "name", "", "display name")
		fs.StringVar(&req.Phone, "phone", "", "phone number")
		fs.StringVar(&req.Gender, "gender", "", "gender")
		fs.StringVar(&req.DateOfBirth, "dob", "", "date of birth, YYYY-MM-DD")
		fs.Float64Var(&req.Income, "income", 0, "monthly income")
		fs.StringVar(&req.Avatar, "avatar", "", "avatar image id or URL")
	}); !ok {
		return 2
	}
	env := c.users.UpdateProfile(ctx, req)
	if env.Success {
		c.session.SetUser(ctx, env.Data)
	}
	return emit(c, env)
}

func cmdChangePassword(ctx context.Context, c *client, args []string) int {
	var req user.ChangePasswordRequest
	if _, ok := parse(c, "change-password", args, func(fs *flag.FlagSet) {
		fs.StringVar(&req.OldPassword, "old", "", "current password")
		fs.StringVar(&req.NewPassword, "new", "", "new password")
	}); !ok {
		return 2
	}
	return emit(c, c.users.ChangePassword(ctx, req))
}

func cmdGeocode(ctx context.Context, c *client, args []string) int {
	fs, ok := parse(c, "geocode", args, nil)
	if !ok {
		return 2
	}
	return emit(c, c.geocoder.Search(ctx, strings.Join(fs.Args(), " ")))
}

func cmdRoute(ctx context.Context, c *client, args []string) int {
	fs, ok := parse(c, "route", args, nil)
	if !ok {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(c.errOut, "expected two points as lat,lon")
		return 2
	}
	from, err := parsePoint(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(c.errOut, err)
		return 2
	}
	to, err := parsePoint(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(c.errOut, err)
		return 2
	}
	return emit(c, c.router.Route(ctx, from, to))
}

func cmdWeather(ctx context.Context, c *client, args []string) int {
	fs, ok := parse(c, "weather", args, nil)
	if !ok {
		return 2
	}
	arg, ok := oneArg(c, fs, "lat,lon point")
	if !ok {
		return 2
	}
	at, err := parsePoint(arg)
	if err != nil {
		fmt.Fprintln(c.errOut, err)
		return 2
	}
	return emit(c, c.weather.Current(ctx, at))
}

func cmdTile(_ context.Context, c *client, args []string) int {
	if len(args) != 3 {
		fmt.Fprintln(c.errOut, "expected z x y")
		return 2
	}
	var zxy [3]int
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			fmt.Fprintf(c.errOut, "invalid tile coordinate %q\n", a)
			return 2
		}
		zxy[i] = n
	}
	fmt.Fprintln(c.out, c.tiles.URL(zxy[0], zxy[1], zxy[2]))
	return 0
}

func parsePoint(s string) (geo.Coordinates, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Coordinates{}, fmt.Errorf("invalid point %q, want lat,lon", s)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return geo.Coordinates{}, fmt.Errorf("invalid latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return geo.Coordinates{}, fmt.Errorf("invalid longitude %q", lon)
	}
	return geo.Coordinates{Lat: la, Lon: lo}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
