package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ankit-chaubey/photometa/core/pipeline"
)

var viewCmd = &cobra.Command{
	Use:   "view <path>",
	Short: "Print a file's existing metadata without calling any AI backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		md, err := pipeline.ReadExisting(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Title       : %s\n", placeholder(md.Title, md.HasTitle))
		fmt.Printf("Description : %s\n", placeholder(md.Description, md.HasDesc))
		fmt.Printf("Keywords    : %s\n", placeholder(md.Keywords, md.HasKeywords))
		fmt.Printf("Subject     : %s\n", placeholder(md.Subject, md.HasSubject))
		if md.HasGPS {
			fmt.Printf("GPS         : %.6f, %.6f\n", md.Latitude, md.Longitude)
		} else {
			fmt.Printf("GPS         : (absent)\n")
		}
		fmt.Printf("Make        : %s\n", md.Make)
		fmt.Printf("Model       : %s\n", md.Model)
		fmt.Printf("DateTime    : %s\n", md.DateTime)
		fmt.Printf("Orientation : %s\n", md.Orientation)
		fmt.Printf("Software    : %s\n", md.Software)
		fmt.Printf("Exposure    : %s\n", md.ExposureTime)
		fmt.Printf("FNumber     : %s\n", md.FNumber)
		fmt.Printf("ISO         : %s\n", md.ISO)
		fmt.Printf("FocalLength : %s\n", md.FocalLength)
		fmt.Printf("ColorSpace  : %s\n", md.ColorSpace)
		fmt.Printf("Dimensions  : %sx%s\n", md.ImageWidth, md.ImageHeight)
		fmt.Printf("LensModel   : %s\n", md.LensModel)
		return nil
	},
}

func placeholder(s string, has bool) string {
	if !has {
		return "(absent)"
	}
	return s
}
