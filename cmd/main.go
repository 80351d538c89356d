package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"stream-lab/backend"
	"stream-lab/contract"
	"stream-lab/domain"
	"stream-lab/internal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func usage() string {
	return "usage: streamctl <rooms|create|delete> [room name]"
}

// run wires the backend client from the environment and dispatches the
// requested room management command.
func run() error {
	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Backend client
	client := backend.NewClient(log, config.BackendURL, config.RequestTimeout)

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flag.Parse()
	switch flag.Arg(0) {
	case "rooms":
		return listRooms(ctx, client, config)
	case "create":
		return createRoom(ctx, client, config, flag.Arg(1))
	case "delete":
		return deleteRoom(ctx, client, config, flag.Arg(1))
	default:
		return fmt.Errorf("%s", usage())
	}
}

func listRooms(ctx context.Context, client *backend.Client, config internal.Config) error {
	rooms, err := client.ListRooms(ctx, config.Passcode)
	if err != nil {
		return fmt.Errorf("room listing failed: %w", err)
	}
	if len(rooms) == 0 {
		fmt.Println("No active room")
		return nil
	}

	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render("Active rooms"))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Room"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for i, room := range rooms {
		table.Append([]string{fmt.Sprintf("%d", i+1), room.Name})
	}
	table.Render()
	return nil
}

func createRoom(ctx context.Context, client *backend.Client, config internal.Config, roomName string) error {
	if roomName == "" {
		return fmt.Errorf("%s", usage())
	}
	identity := domain.NewIdentity(config.UserName, domain.RoleModerator)
	res, err := client.JoinRoom(ctx, contract.JoinRoomRequest{
		Passcode:     config.Passcode,
		UserIdentity: identity.Identity,
		RoomName:     roomName,
		CreateRoom:   true,
	})
	if err != nil {
		return fmt.Errorf("room creation failed: %w", err)
	}

	cred := backend.Credential(res.Token)
	fmt.Printf("Room %q created (session %s)\n", roomName, res.SessionID)
	if expiry, err := cred.ExpiresAt(); err == nil {
		fmt.Printf("Moderator credential valid until %s\n", expiry.Format("15:04:05"))
	}
	return nil
}

func deleteRoom(ctx context.Context, client *backend.Client, config internal.Config, roomName string) error {
	if roomName == "" {
		return fmt.Errorf("%s", usage())
	}
	if err := client.DeleteRoom(ctx, config.Passcode, roomName); err != nil {
		return fmt.Errorf("room deletion failed: %w", err)
	}
	fmt.Printf("Room %q deleted\n", roomName)
	return nil
}
