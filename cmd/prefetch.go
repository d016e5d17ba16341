/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"log"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"slippymap/common"
	"slippymap/diskcache"
	"slippymap/fetch"
	"slippymap/geo"
	"slippymap/params"
	"slippymap/tiles"
)

var (
	optBBox  []float64
	optZooms []int
)

// countingFetcher counts how many fetches actually hit the network;
// tiles already on disk never reach it.
type countingFetcher struct {
	inner *fetch.HTTPFetcher
	n     int
}

func (f *countingFetcher) Fetch(id tiles.RequestID, url string) {
	f.n++
	f.inner.Fetch(id, url)
}

// prefetchCmd represents the prefetch command
var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Fetch tiles for a bounding box into the disk cache",
	Long: `Walks the tile pyramid over a bounding box at the given zoom levels
and fetches every missing tile into the disk cache. Tiles already cached
and decodable are skipped without a network request.

Example:

  slippymap prefetch --bbox=-122.52,37.70,-122.35,37.83 --zooms=10,11,12`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		if len(optBBox) != 4 {
			log.Fatalln("--bbox wants minLng,minLat,maxLng,maxLat")
		}
		minPt := orb.Point{optBBox[0], geo.ClampLat(optBBox[1])}
		maxPt := orb.Point{optBBox[2], geo.ClampLat(optBBox[3])}

		store := diskcache.NewStore(diskConfig())
		if !store.Enabled() {
			log.Fatalln("no writable cache directory; disk caching disabled")
		}

		fetcher := &countingFetcher{inner: fetch.NewHTTPFetcher()}
		cacheConfig := params.DefaultTileCacheConfig()
		cacheConfig.TileServer = viper.GetString("server")
		cache := tiles.NewCache(cacheConfig, store, fetcher)

		requested := 0
		for _, z := range optZooms {
			if z < 0 || z > geo.MaxTileZoom {
				log.Fatalln("zoom out of range:", z)
			}
			zoom := uint8(z)
			// NW corner has the min tile coordinates in both axes.
			nw := geo.GeoToTile(orb.Point{minPt.Lon(), maxPt.Lat()}, zoom)
			se := geo.GeoToTile(orb.Point{maxPt.Lon(), minPt.Lat()}, zoom)
			for x := nw.X; x <= se.X; x++ {
				for y := nw.Y; y <= se.Y; y++ {
					cache.RequestTile(geo.TileAddress{X: x, Y: y, Z: zoom})
					requested++
				}
			}
		}
		slog.Info("Prefetch requested", "tiles", requested, "fetching", fetcher.n)

		interrupted := common.Interrupted()
		delivered := 0
		for delivered < fetcher.n {
			select {
			case res := <-fetcher.inner.Results():
				fetch.Deliver(cache, res)
				delivered++
				if delivered%100 == 0 {
					slog.Info("Prefetch progress", "delivered", delivered, "of", fetcher.n)
				}
			case <-interrupted:
				slog.Warn("Interrupted", "delivered", delivered, "of", fetcher.n)
				return
			}
		}

		slog.Info("Prefetch done",
			"tiles", requested,
			"fetched", fetcher.n,
			"cache", humanize.Bytes(uint64(store.TotalSize())))
	},
}

func init() {
	rootCmd.AddCommand(prefetchCmd)
	prefetchCmd.Flags().Float64SliceVar(&optBBox, "bbox", nil, "minLng,minLat,maxLng,maxLat")
	prefetchCmd.Flags().IntSliceVar(&optZooms, "zooms", []int{12}, "zoom levels to prefetch")
}
