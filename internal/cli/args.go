package cli

import (
	"fmt"
	"strconv"

	"cinepwa/proj/internal/domain/models"

	"github.com/spf13/cobra"
)

func parseTMDBID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid title id %q", s)
	}
	return id, nil
}

func addTypeFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("type", "t", string(models.MediaMovie), "Media type: movie or tv")
}

func typeFlag(cmd *cobra.Command) (models.MediaType, error) {
	raw, _ := cmd.Flags().GetString("type")
	mt := models.MediaType(raw)
	if !mt.Valid() {
		return "", fmt.Errorf("invalid media type %q (want movie or tv)", raw)
	}
	return mt, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
