package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/showgrid/showgrid-go/cmd/upsert"
	"github.com/showgrid/showgrid-go/cmd/venues"
	"github.com/showgrid/showgrid-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "showgrid",
		Short: "ShowGrid event catalog CLI",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		upsert.Command(settings),
		venues.Command(settings),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().Float64Var(&settings.Import.TimeWindow, "timewindow", viper.GetFloat64("import.timewindow"), "Hours of tolerance when matching same-day events by time")
	rootCmd.PersistentFlags().StringVar(&settings.Import.DefaultCountry, "country", viper.GetString("import.defaultcountry"), "Country assumed when venue payloads omit one")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
