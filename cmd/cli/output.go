package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/and161185/chunkhub/internal/api"
)

func printModpacks(w io.Writer, ms []api.Modpack) {
	if len(ms) == 0 {
		fmt.Fprintln(w, "no modpacks found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tNAME\tMC\tLOADER\tDOWNLOADS")
	for _, m := range ms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", m.Slug, m.Name, m.MCVersion, m.Loader, m.Downloads)
	}
	_ = tw.Flush()
}

func printProject(w io.Writer, d api.ProjectDetail) {
	fmt.Fprintf(w, "%s (%s) by %s\n", d.Name, d.Slug, d.Author.Username)
	if d.Description != nil && *d.Description != "" {
		fmt.Fprintf(w, "  %s\n", *d.Description)
	}
	loader := d.Loader
	if d.LoaderVersion != nil {
		loader += " " + *d.LoaderVersion
	}
	fmt.Fprintf(w, "Minecraft %s, %s, %d GB RAM recommended\n", d.MCVersion, loader, d.RecommendedRAMGB)
	fmt.Fprintf(w, "Downloads: %d (versions: %d)\n", d.DownloadStats.TotalDownloads, d.DownloadStats.VersionDownloads)
	if !d.IsPublished {
		fmt.Fprintln(w, "Status: unpublished")
	}
	if len(d.Versions) == 0 {
		fmt.Fprintln(w, "No versions yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tMC\tSTABLE\tFILE\tRELEASED")
	for _, v := range d.Versions {
		file := "-"
		if v.FileSize != nil {
			file = humanSize(*v.FileSize)
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", v.Version, v.MCVersion, v.IsStable, file, v.CreatedAt.UTC().Format(time.DateOnly))
	}
	_ = tw.Flush()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
