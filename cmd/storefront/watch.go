package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"enstore_storefront/internal/status"
)

// watchTransaction follows one transaction until it settles, showing the
// payment countdown. Typing "r" checks the status now, "c" cancels, "q" quits.
func watchTransaction(ctx context.Context, a *app, code string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu        sync.Mutex
		countdown *status.Countdown
		poller    *status.Poller
		wg        sync.WaitGroup
	)

	onUpdate := func(u status.Update) {
		fmt.Printf("\r[%s] %s", u.Trigger, u.State)
		if u.Transaction != nil && u.Transaction.PaymentStatus != "" {
			fmt.Printf(" (payment %s)", u.Transaction.PaymentStatus)
		}
		if u.Expired {
			fmt.Print(" - payment time ran out")
		}
		fmt.Println()

		if u.State.Terminal() || u.Transaction == nil {
			return
		}
		deadline, ok := u.Transaction.ExpiresAt()
		if !ok {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if countdown != nil {
			return
		}
		countdown = status.NewCountdown(deadline, poller.Expire, status.WithTickHandler(func(left string) {
			fmt.Printf("\rPay within %s  [r]efresh [c]ancel [q]uit > ", left)
		}))
		wg.Add(1)
		go func() {
			defer wg.Done()
			countdown.Run(ctx)
		}()
	}

	poller = status.NewPoller(code, a.transactions,
		status.WithInterval(a.cfg.StatusPollInterval),
		status.WithUpdateHandler(onUpdate),
	)

	errc := make(chan error, 1)
	go func() { errc <- poller.Run(ctx) }()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		select {
		case <-poller.Done():
			cancel()
			<-errc
			printFinal(poller.Snapshot())
			return nil
		case err := <-errc:
			if err == nil {
				printFinal(poller.Snapshot())
				return nil
			}
			if errors.Is(err, context.Canceled) {
				fmt.Println("\nStopped watching.")
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			switch line {
			case "r":
				if _, err := poller.Check(ctx); err != nil {
					fmt.Printf("\nCheck failed: %s\n", describeError(err))
				}
			case "c":
				if _, err := poller.Cancel(ctx); err != nil {
					fmt.Printf("\nCancel failed: %s\n", describeError(err))
				}
			case "q":
				cancel()
			}
		}
	}
}

func printFinal(u status.Update) {
	fmt.Println()
	switch {
	case u.State == status.StateSuccess:
		fmt.Println("Payment successful.")
	case u.Expired:
		fmt.Println("Payment expired.")
	default:
		fmt.Println("Transaction failed.")
	}
	if u.Transaction != nil {
		printTransaction(os.Stdout, *u.Transaction)
	}
}
