package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/itinerary/internal/config"
	"github.com/ziadkadry99/itinerary/internal/itinerary"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize itinerary configuration with an interactive wizard",
	Long: `Runs an interactive wizard to configure the itinerary server and generates
a .itinerary.yml file. With --scaffold a starter site with a sample
itinerary is written to the given directory as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile)
		if err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("scaffold")
		if dir == "" {
			return nil
		}
		renderer, err := newRenderer(cfg)
		if err != nil {
			return err
		}
		if err := renderer.Export(dir, sampleItinerary()); err != nil {
			return fmt.Errorf("writing starter site: %w", err)
		}
		fmt.Printf("Starter site written to %s\n", dir)
		return nil
	},
}

func init() {
	initCmd.Flags().String("scaffold", "", "write a starter site into this directory")
	rootCmd.AddCommand(initCmd)
}

func sampleItinerary() *itinerary.Itinerary {
	return &itinerary.Itinerary{
		Title:    "Weekend in Las Vegas",
		Subtitle: "Three days, zero regrets",
		Days: []itinerary.Day{
			{Label: "Friday", Items: []itinerary.Item{
				{Type: itinerary.TypeFlight, Time: "9:15 AM", Title: "Fly to LAS", Location: "Terminal 2",
					Checklist: []string{"ID", "boarding pass", "charger"}},
				{Type: itinerary.TypeHotel, Time: "3:00 PM", Title: "Check in"},
				{Type: itinerary.TypeRestaurant, Time: "7:30 PM", Title: "Dinner", Description: "Reservation under **Sam**."},
			}},
			{Label: "Saturday", Items: []itinerary.Item{
				{Type: itinerary.TypeActivity, Time: "11:00 AM", Title: "Pool day"},
				{Type: itinerary.TypeShow, Time: "8:00 PM", Title: "Evening show",
					Tickets: []itinerary.Ticket{{URL: "ticketFast_1.pdf", Label: "Ticket 1"}, {URL: "ticketFast_2.pdf", Label: "Ticket 2"}}},
			}},
			{Label: "Sunday", Items: []itinerary.Item{
				{Type: itinerary.TypeTransport, Time: "10:00 AM", Title: "Ride to the airport",
					DirectionsURL: "https://maps.google.com/?q=LAS"},
			}},
		},
	}
}
