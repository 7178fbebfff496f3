package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dsbgw/dsb-client-gateway/cmd/flags"
	"github.com/dsbgw/dsb-client-gateway/identity"
	"github.com/dsbgw/dsb-client-gateway/registry"
	"github.com/dsbgw/dsb-client-gateway/storage"
)

var submitFlag = &cli.BoolFlag{
	Name:  "submit",
	Usage: "submit claim requests for roles without a claim",
}

func main() {
	app := &cli.App{
		Name:  "dsb-enrol",
		Usage: "Inspect and remediate the gateway identity enrolment",
		Flags: append([]cli.Flag{
			flags.PrivateKeyFlag,
			flags.IdentityFileFlag,
			submitFlag,
		}, append(flags.RegistryFlags, flags.CommonFlags...)...),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	ctx := cCtx.Context

	privateKey := cCtx.String(flags.PrivateKeyFlag.Name)
	if privateKey == "" {
		return fmt.Errorf("--%s is required", flags.PrivateKeyFlag.Name)
	}

	regClient, err := registry.NewClient(ctx, flags.ConfigureRegistry(cCtx), logger)
	if err != nil {
		return err
	}

	manager, err := identity.NewManager(ctx, privateKey, regClient, regClient.Roles(), logger)
	if err != nil {
		return err
	}

	state, err := manager.GetEnrolmentState(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("did:           %s\n", manager.DID())
	fmt.Printf("address:       %s\n", manager.Address())
	fmt.Printf("user:          %s\n", state.User)
	fmt.Printf("messagebroker: %s\n", state.MessageBroker)

	if !cCtx.Bool(submitFlag.Name) {
		return nil
	}
	if state.Complete() {
		fmt.Println("enrolment already complete")
		return nil
	}

	if _, err := manager.HandleEnrolment(ctx, state); err != nil {
		return err
	}

	state, err = manager.GetEnrolmentState(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("after submission: user=%s messagebroker=%s\n", state.User, state.MessageBroker)

	store, err := storage.NewFileIdentityStore(cCtx.String(flags.IdentityFileFlag.Name), logger)
	if err != nil {
		return err
	}
	if err := store.Write(ctx, manager.Record()); err != nil {
		return err
	}
	fmt.Printf("identity written to %s\n", cCtx.String(flags.IdentityFileFlag.Name))

	return nil
}
