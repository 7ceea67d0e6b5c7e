// Command bot is the strategy-execution CLI for Binance USDT-M futures.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/analytics"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/app"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/engine"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/infra/binance"
)

const defaultConfigPath = "config.yaml"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := app.Bootstrap(ctx, defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		return 1
	}
	defer bot.Close()

	if len(args) == 0 {
		printWelcome(ctx, bot)
		return 0
	}

	cmd, rest := args[0], args[1:]
	if err := dispatch(ctx, bot, cmd, rest); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "❌ %s failed: %v\n", cmd, err)
		}
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, bot *app.Bot, cmd string, args []string) error {
	switch cmd {
	case "price":
		return cmdPrice(ctx, bot, args)
	case "status":
		return cmdStatus(ctx, bot, args)
	case "market":
		return cmdMarket(ctx, bot, args)
	case "limit":
		return cmdLimit(ctx, bot, args)
	case "stop-limit":
		return cmdStopLimit(ctx, bot, args)
	case "oco":
		return cmdOco(ctx, bot, args)
	case "twap":
		return cmdTwap(ctx, bot, args)
	case "grid":
		return cmdGrid(ctx, bot, args)
	case "cancel":
		return cmdCancel(ctx, bot, args)
	case "analyze-sentiment":
		return cmdAnalyzeSentiment(ctx, bot, args)
	case "analyze-historical":
		return cmdAnalyzeHistorical(ctx, bot, args)
	default:
		return fmt.Errorf("unknown command %q (run without arguments for usage)", cmd)
	}
}

func printWelcome(ctx context.Context, bot *app.Bot) {
	fmt.Println("🤖 Binance Futures Strategy Bot")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  price [--watch] [SYMBOL]")
	fmt.Println("  status [--positions] [--orders] [--symbol SYMBOL]")
	fmt.Println("  market SYMBOL BUY|SELL QTY")
	fmt.Println("  limit SYMBOL BUY|SELL QTY PRICE [--tif GTC|IOC|FOK] [--show-open]")
	fmt.Println("  stop-limit SYMBOL BUY|SELL QTY STOP LIMIT [--reduce-only]")
	fmt.Println("  oco SYMBOL QTY TP SL [--position LONG|SHORT]")
	fmt.Println("  twap SYMBOL BUY|SELL QTY MINUTES [--price-limit P] [--no-randomize]")
	fmt.Println("  grid SYMBOL LOW HIGH LEVELS QTY_PER_LEVEL")
	fmt.Println("  cancel SYMBOL ORDER_ID")
	fmt.Println("  analyze-sentiment [--csv PATH] [SYMBOL]")
	fmt.Println("  analyze-historical [--csv PATH] [--confidence 0.8] [SYMBOL]")

	// Live examples against the connected exchange.
	if price, err := bot.Client.GetCurrentPrice(ctx, "BTCUSDT"); err == nil {
		fmt.Println()
		fmt.Printf("BTCUSDT is trading at %.2f. For example:\n", price)
		fmt.Printf("  bot limit BTCUSDT BUY 0.01 %.1f\n", price*0.99)
		fmt.Printf("  bot grid BTCUSDT %.0f %.0f 10 0.001\n", price*0.95, price*1.05)
		fmt.Printf("  bot oco BTCUSDT 0.01 %.0f %.0f --position LONG\n", price*1.05, price*0.95)
	}
}

func cmdPrice(ctx context.Context, bot *app.Bot, args []string) error {
	fs := flag.NewFlagSet("price", flag.ContinueOnError)
	watch := fs.Bool("watch", false, "stream live mark prices until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	symbol := strings.ToUpper(argOr(fs, 0, "BTCUSDT"))

	price, err := bot.Client.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %.2f\n", symbol, price)

	if !*watch {
		return nil
	}

	stream := binance.NewPriceStream(bot.Config.Exchange.StreamURL, symbol)
	updates := stream.Start(ctx)
	fmt.Println("watching mark price, Ctrl+C to stop")
	for u := range updates {
		fmt.Printf("%s  %s: %.2f\n", u.At.Format("15:04:05"), u.Symbol, u.Price)
	}
	stream.Wait()
	return nil
}

func cmdStatus(ctx context.Context, bot *app.Bot, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	positions := fs.Bool("positions", false, "list open positions")
	orders := fs.Bool("orders", false, "list open orders")
	symbol := fs.String("symbol", "", "restrict to one symbol")
	if err := fs.Parse(args); err != nil {
		return err
	}

	acct, err := bot.Client.GetAccountInfo(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Wallet balance:    %.2f USDT\n", acct.TotalWalletBalance)
	fmt.Printf("Available balance: %.2f USDT\n", acct.AvailableBalance)
	fmt.Printf("Unrealized PnL:    %.2f USDT\n", acct.TotalUnrealizedProfit)

	if *positions {
		pos, err := bot.Client.GetOpenPositions(ctx, strings.ToUpper(*symbol))
		if err != nil {
			return err
		}
		fmt.Printf("\nOpen positions: %d\n", len(pos))
		for _, p := range pos {
			fmt.Printf("  %-12s %-6s amt=%v entry=%.2f upnl=%.2f\n",
				p.Symbol, p.PositionSide, p.PositionAmt, p.EntryPrice, p.UnrealizedProfit)
		}
	}
	if *orders {
		open, err := bot.Client.GetOpenOrders(ctx, strings.ToUpper(*symbol))
		if err != nil {
			return err
		}
		fmt.Printf("\nOpen orders: %d\n", len(open))
		for _, o := range open {
			fmt.Printf("  %-12s %-4s %-12s qty=%v price=%.2f id=%s\n",
				o.Symbol, o.Side, o.Kind, o.OrigQty, o.Price, o.OrderID)
		}
	}
	return nil
}

func cmdMarket(ctx context.Context, bot *app.Bot, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: market SYMBOL BUY|SELL QTY")
	}
	qty, err := parseFloatArg("quantity", args[2])
	if err != nil {
		return err
	}

	rec, err := bot.Engine.PlaceMarketOrder(ctx, strings.ToUpper(args[0]), domain.Side(strings.ToUpper(args[1])), qty)
	if err != nil {
		return err
	}
	fmt.Printf("✅ market order placed: id=%s qty=%v\n", rec.ExchangeOrderID, rec.Intent.Quantity)
	return nil
}

func cmdLimit(ctx context.Context, bot *app.Bot, args []string) error {
	fs := flag.NewFlagSet("limit", flag.ContinueOnError)
	tif := fs.String("tif", "GTC", "time in force: GTC, IOC, or FOK")
	showOpen := fs.Bool("show-open", false, "list open orders after placing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 4 {
		return fmt.Errorf("usage: limit SYMBOL BUY|SELL QTY PRICE [--tif GTC] [--show-open]")
	}
	qty, err := parseFloatArg("quantity", rest[2])
	if err != nil {
		return err
	}
	price, err := parseFloatArg("price", rest[3])
	if err != nil {
		return err
	}
	symbol := strings.ToUpper(rest[0])

	rec, err := bot.Engine.PlaceLimitOrder(ctx, symbol, domain.Side(strings.ToUpper(rest[1])), qty, price, domain.TimeInForce(strings.ToUpper(*tif)))
	if err != nil {
		return err
	}
	fmt.Printf("✅ limit order placed: id=%s price=%v qty=%v\n",
		rec.ExchangeOrderID, rec.Intent.Price, rec.Intent.Quantity)

	if *showOpen {
		open, err := bot.Client.GetOpenOrders(ctx, symbol)
		if err != nil {
			return err
		}
		fmt.Printf("open orders on %s: %d\n", symbol, len(open))
		for _, o := range open {
			fmt.Printf("  %-4s %-12s qty=%v price=%.2f id=%s\n", o.Side, o.Kind, o.OrigQty, o.Price, o.OrderID)
		}
	}
	return nil
}

func cmdStopLimit(ctx context.Context, bot *app.Bot, args []string) error {
	fs := flag.NewFlagSet("stop-limit", flag.ContinueOnError)
	reduceOnly := fs.Bool("reduce-only", false, "order may only reduce an open position")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 5 {
		return fmt.Errorf("usage: stop-limit SYMBOL BUY|SELL QTY STOP LIMIT [--reduce-only]")
	}
	qty, err := parseFloatArg("quantity", rest[2])
	if err != nil {
		return err
	}
	stop, err := parseFloatArg("stop price", rest[3])
	if err != nil {
		return err
	}
	limit, err := parseFloatArg("limit price", rest[4])
	if err != nil {
		return err
	}

	rec, err := bot.Engine.PlaceStopLimitOrder(ctx, strings.ToUpper(rest[0]), domain.Side(strings.ToUpper(rest[1])), qty, stop, limit, *reduceOnly)
	if err != nil {
		return err
	}
	fmt.Printf("✅ stop-limit order placed: id=%s stop=%v limit=%v\n",
		rec.ExchangeOrderID, rec.Intent.StopPrice, rec.Intent.Price)
	return nil
}

func cmdOco(ctx context.Context, bot *app.Bot, args []string) error {
	fs := flag.NewFlagSet("oco", flag.ContinueOnError)
	position := fs.String("position", "LONG", "position side the bracket protects")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 4 {
		return fmt.Errorf("usage: oco SYMBOL QTY TP SL [--position LONG|SHORT]")
	}
	qty, err := parseFloatArg("quantity", rest[1])
	if err != nil {
		return err
	}
	tp, err := parseFloatArg("take-profit", rest[2])
	if err != nil {
		return err
	}
	sl, err := parseFloatArg("stop-loss", rest[3])
	if err != nil {
		return err
	}

	pair, err := bot.Engine.CreateOco(ctx, engine.OcoParams{
		Symbol:       strings.ToUpper(rest[0]),
		Quantity:     qty,
		TakeProfit:   tp,
		StopLoss:     sl,
		PositionSide: domain.PositionSide(strings.ToUpper(*position)),
	})
	if err != nil {
		return err
	}
	fmt.Printf("✅ OCO pair %s active: tp=%s sl=%s\n",
		pair.ID, pair.TakeProfit.ExchangeOrderID, pair.StopLoss.ExchangeOrderID)
	fmt.Println("monitoring legs, Ctrl+C to detach (orders stay on the exchange)")

	// Resolved pairs leave the registry, so absence means done.
	<-waitResolved(ctx, func() bool {
		_, ok := bot.Engine.Registry().Oco(pair.ID)
		return !ok
	})
	if _, ok := bot.Engine.Registry().Oco(pair.ID); !ok {
		fmt.Printf("OCO pair %s resolved\n", pair.ID)
	}
	return nil
}

func cmdTwap(ctx context.Context, bot *app.Bot, args []string) error {
	fs := flag.NewFlagSet("twap", flag.ContinueOnError)
	priceLimit := fs.Float64("price-limit", 0, "limit price per chunk, 0 for market orders")
	noRandomize := fs.Bool("no-randomize", false, "disable chunk timing jitter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 4 {
		return fmt.Errorf("usage: twap SYMBOL BUY|SELL QTY MINUTES [--price-limit P] [--no-randomize]")
	}
	qty, err := parseFloatArg("quantity", rest[2])
	if err != nil {
		return err
	}
	minutes, err := strconv.Atoi(rest[3])
	if err != nil {
		return domain.Invalid("duration", "%s is not a whole number of minutes", rest[3])
	}

	run, err := bot.Engine.CreateTwap(ctx, engine.TwapParams{
		Symbol:          strings.ToUpper(rest[0]),
		Side:            domain.Side(strings.ToUpper(rest[1])),
		TotalQuantity:   qty,
		DurationMinutes: minutes,
		PriceLimit:      *priceLimit,
		Randomize:       !*noRandomize,
	})
	if err != nil {
		return err
	}
	fmt.Printf("✅ TWAP %s started: %d chunks over %d minutes\n",
		run.Plan.ID, run.Plan.ChunkCount, run.Plan.DurationMinutes)

	select {
	case <-ctx.Done():
		bot.Engine.Registry().Remove(run.Plan.ID)
		final := run.Wait()
		fmt.Printf("TWAP %s interrupted: %s, executed %v\n", final.ID, final.Status, final.ExecutedQuantity)
	case <-run.Done():
		final := run.Wait()
		fmt.Printf("TWAP %s %s: executed %v at average %.2f\n",
			final.ID, final.Status, final.ExecutedQuantity, final.AveragePrice)
		if final.Status != domain.TwapCompleted {
			return fmt.Errorf("no chunk executed")
		}
	}
	return nil
}

func cmdGrid(ctx context.Context, bot *app.Bot, args []string) error {
	if len(args) < 5 {
		return fmt.Errorf("usage: grid SYMBOL LOW HIGH LEVELS QTY_PER_LEVEL")
	}
	low, err := parseFloatArg("low", args[1])
	if err != nil {
		return err
	}
	high, err := parseFloatArg("high", args[2])
	if err != nil {
		return err
	}
	levels, err := strconv.Atoi(args[3])
	if err != nil {
		return domain.Invalid("levels", "%s is not a whole number", args[3])
	}
	qty, err := parseFloatArg("quantity", args[4])
	if err != nil {
		return err
	}

	g, err := bot.Engine.CreateGrid(ctx, engine.GridParams{
		Symbol: strings.ToUpper(args[0]),
		Low:    low, High: high,
		Levels:           levels,
		QuantityPerLevel: qty,
	})
	if err != nil {
		return err
	}
	buys, sells, failed := g.PlacementCounts()
	fmt.Printf("✅ grid %s: %d buy / %d sell orders resting, %d failed\n", g.ID, buys, sells, failed)
	if g.Status != domain.GridActive {
		return fmt.Errorf("no grid level placed")
	}
	fmt.Println("monitoring fills, Ctrl+C to stop and cancel resting orders")

	<-ctx.Done()
	canceled, cancelFailed, err := bot.Engine.StopGrid(context.Background(), g.ID)
	if err != nil {
		return err
	}
	fmt.Printf("grid %s stopped: %d orders canceled, %d cancels failed\n", g.ID, canceled, cancelFailed)
	return nil
}

func cmdCancel(ctx context.Context, bot *app.Bot, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: cancel SYMBOL ORDER_ID")
	}
	symbol, orderID := strings.ToUpper(args[0]), args[1]
	if err := bot.Client.CancelOrder(ctx, symbol, orderID); err != nil {
		return err
	}
	fmt.Printf("✅ order %s on %s canceled\n", orderID, symbol)
	return nil
}

func cmdAnalyzeSentiment(ctx context.Context, bot *app.Bot, args []string) error {
	fs := flag.NewFlagSet("analyze-sentiment", flag.ContinueOnError)
	csvPath := fs.String("csv", bot.Config.Analytics.SentimentCSV, "fear/greed index csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *csvPath == "" {
		return fmt.Errorf("no sentiment csv configured (use --csv or analytics.sentiment_csv)")
	}
	symbol := strings.ToUpper(argOr(fs, 0, "BTCUSDT"))

	scores, err := analytics.LoadSentimentCSV(*csvPath)
	if err != nil {
		return err
	}
	price, err := bot.Client.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return err
	}

	rec := analytics.Recommend(symbol, analytics.LatestScore(scores), price)
	fmt.Printf("😱📈 Market sentiment: %.0f/100 (%s)\n", rec.Score, rec.Label)
	fmt.Printf("Risk level: %s\n", rec.RiskLevel)
	fmt.Printf("Grid trading: recommended=%v band=[%.2f, %.2f] spacing %+.1f%%\n",
		rec.GridRecommended, rec.GridLow, rec.GridHigh, rec.SpacingAdjustmentPct)
	fmt.Printf("TWAP: suggested duration %d min (interval %+.1f%%)\n",
		rec.SuggestedDurationMin, rec.IntervalAdjustmentPct)
	fmt.Printf("Position sizing: %+.1f%% (max risk %.2f%% per trade)\n",
		rec.SizeAdjustmentPct, rec.MaxRiskPerTradePct)
	fmt.Printf("\n%s\n", rec.Outlook)
	return nil
}

func cmdAnalyzeHistorical(_ context.Context, bot *app.Bot, args []string) error {
	fs := flag.NewFlagSet("analyze-historical", flag.ContinueOnError)
	csvPath := fs.String("csv", bot.Config.Analytics.HistoricalCSV, "trade execution csv")
	confidence := fs.Float64("confidence", 0.80, "grid range confidence level: 0.80, 0.90, or 0.95")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *csvPath == "" {
		return fmt.Errorf("no historical csv configured (use --csv or analytics.historical_csv)")
	}
	symbol := argOr(fs, 0, "BTC")

	records, err := analytics.LoadTradeCSV(*csvPath)
	if err != nil {
		return err
	}

	a, err := analytics.AnalyzePatterns(records, symbol)
	if err != nil {
		return err
	}
	fmt.Printf("📊 %s: %d trades analyzed\n", a.Symbol, a.TradeCount)
	fmt.Printf("Price: avg %.2f, range [%.2f, %.2f], volatility %.2f%%\n",
		a.AveragePrice, a.MinPrice, a.MaxPrice, a.VolatilityPct)
	fmt.Printf("TWAP: %s, intervals %v min\n", a.TwapNote, a.TwapIntervals)
	for side, count := range a.SideCounts {
		fmt.Printf("  %s: %d trades (%.1f%%)\n", side, count, float64(count)/float64(a.TradeCount)*100)
	}
	if a.WinRatePct > 0 {
		fmt.Printf("PnL: win rate %.1f%%, avg win %.2f, avg loss %.2f, total %.2f\n",
			a.WinRatePct, a.ProfitableGain, a.LosingLoss, a.TotalPnL)
	}

	g, err := analytics.OptimalGridRange(records, symbol, *confidence)
	if err != nil {
		fmt.Printf("grid range: %v\n", err)
		return nil
	}
	fmt.Printf("Grid range (%.0f%% confidence): [%.2f, %.2f] around avg %.2f\n",
		g.ConfidenceLevel*100, g.SuggestedLow, g.SuggestedHigh, g.AveragePrice)
	return nil
}

// waitResolved polls cond once a second until it holds or ctx ends.
func waitResolved(ctx context.Context, cond func() bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for !cond() {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return done
}

func argOr(fs *flag.FlagSet, i int, def string) string {
	if fs.NArg() > i {
		return fs.Arg(i)
	}
	return def
}

func parseFloatArg(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, domain.Invalid(name, "%s is not a number", s)
	}
	return v, nil
}
