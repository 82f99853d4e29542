// Package loader fills the apartment catalog from a directory of
// per-city listing folders. Each folder holds the listing texts, a
// metadata file and a local video that is uploaded once to obtain a
// reusable file id.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
	"github.com/vegasatr/OtpuskPass-bot/internal/repository"
)

// cityFolders maps the on-disk folder names to the catalog city names
// shown to users.
var cityFolders = []struct {
	Folder string
	City   string
}{
	{"phuket", "Пхукет"},
	{"bangkok", "Бангкок"},
	{"pattaya", "Паттайя"},
	{"samui", "Самуи"},
	{"phi_phi", "Пхи-Пхи"},
	{"krabi", "Краби"},
}

const videoFileName = "video.mp4"

// Template bodies written by Scaffold. A listing file that still
// contains its template body is treated as unfilled and rejected.
const (
	templateDescriptionMarker = "Заполните это описание"
	templateFeatures          = "Кондиционер, стиральная машина, оборудованная кухня, Wi-Fi, телевизор."
	templateAttractions       = "Рядом с пляжем, кафе, магазины, достопримечательности."
)

// Listing is a fully validated city folder, ready to be upserted.
type Listing struct {
	City              string
	Address           string
	Description       string
	Features          string
	NearbyAttractions string
	AreaSqm           float64
	NumBedrooms       int
	VideoPath         string
}

// VideoUploader turns a local video file into a reusable platform
// file id.
type VideoUploader interface {
	UploadVideo(path string) (string, error)
}

// Store is the catalog surface the loader needs.
type Store interface {
	GetBaseApartment(ctx context.Context, city string) (*model.Apartment, error)
	UpsertApartment(ctx context.Context, apt *model.Apartment) error
}

// Scaffold creates the city folders and template files that are still
// missing under baseDir, so an operator can fill them in.
func Scaffold(baseDir string) error {
	for _, cf := range cityFolders {
		cityDir := filepath.Join(baseDir, cf.Folder)
		if err := os.MkdirAll(cityDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", cityDir, err)
		}

		templates := map[string]string{
			"description.txt":        fmt.Sprintf("%s квартиры в %s.\n", templateDescriptionMarker, cf.City),
			"features.txt":           templateFeatures + "\n",
			"nearby_attractions.txt": templateAttractions + "\n",
			"metadata.txt": fmt.Sprintf("address=Базовая квартира в %s (адрес)\narea_sqm=50.0\nnum_bedrooms=1\n",
				cf.City),
		}
		for name, body := range templates {
			path := filepath.Join(cityDir, name)
			if _, err := os.Stat(path); err == nil {
				continue
			}
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				return fmt.Errorf("failed to write template %s: %w", path, err)
			}
			log.Printf("[Loader] Created template %s", path)
		}

		if _, err := os.Stat(filepath.Join(cityDir, videoFileName)); err != nil {
			log.Printf("[Loader] Missing %s in %s, add it before running the import", videoFileName, cityDir)
		}
	}
	return nil
}

// ScanCity reads and validates one city folder.
func ScanCity(baseDir, folder, city string) (*Listing, error) {
	cityDir := filepath.Join(baseDir, folder)

	var missing []string
	for _, name := range []string{"description.txt", "features.txt", "nearby_attractions.txt", "metadata.txt", videoFileName} {
		if _, err := os.Stat(filepath.Join(cityDir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required files: %s", strings.Join(missing, ", "))
	}

	description, err := readText(filepath.Join(cityDir, "description.txt"))
	if err != nil {
		return nil, err
	}
	features, err := readText(filepath.Join(cityDir, "features.txt"))
	if err != nil {
		return nil, err
	}
	attractions, err := readText(filepath.Join(cityDir, "nearby_attractions.txt"))
	if err != nil {
		return nil, err
	}

	if description == "" || strings.Contains(description, templateDescriptionMarker) {
		return nil, errors.New("description.txt is empty or still contains the template text")
	}
	if features == "" || strings.Contains(features, templateFeatures) {
		return nil, errors.New("features.txt is empty or still contains the template text")
	}
	if attractions == "" || strings.Contains(attractions, templateAttractions) {
		return nil, errors.New("nearby_attractions.txt is empty or still contains the template text")
	}

	meta, err := parseMetadata(filepath.Join(cityDir, "metadata.txt"))
	if err != nil {
		return nil, err
	}

	address := meta["address"]
	if address == "" {
		return nil, errors.New("metadata.txt: address is required")
	}
	areaSqm, err := strconv.ParseFloat(meta["area_sqm"], 64)
	if err != nil || areaSqm <= 0 {
		return nil, errors.New("metadata.txt: area_sqm must be a positive number")
	}
	numBedrooms, err := strconv.Atoi(meta["num_bedrooms"])
	if err != nil || numBedrooms <= 0 {
		return nil, errors.New("metadata.txt: num_bedrooms must be a positive integer")
	}

	return &Listing{
		City:              city,
		Address:           address,
		Description:       description,
		Features:          features,
		NearbyAttractions: attractions,
		AreaSqm:           areaSqm,
		NumBedrooms:       numBedrooms,
		VideoPath:         filepath.Join(cityDir, videoFileName),
	}, nil
}

// Run imports every city folder under baseDir: validate, obtain a
// video file id (reusing the one already stored when possible) and
// upsert the base listing. Returns an error if any city failed.
func Run(ctx context.Context, baseDir string, store Store, uploader VideoUploader) error {
	var failed []string
	for _, cf := range cityFolders {
		if err := runCity(ctx, baseDir, cf.Folder, cf.City, store, uploader); err != nil {
			log.Printf("[Loader] %s: %v", cf.City, err)
			failed = append(failed, cf.City)
			continue
		}
		log.Printf("[Loader] %s: imported", cf.City)
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to import: %s", strings.Join(failed, ", "))
	}
	return nil
}

func runCity(ctx context.Context, baseDir, folder, city string, store Store, uploader VideoUploader) error {
	listing, err := ScanCity(baseDir, folder, city)
	if err != nil {
		return err
	}

	videoFileID, err := resolveVideoFileID(ctx, city, listing.VideoPath, store, uploader)
	if err != nil {
		return err
	}

	apt := &model.Apartment{
		City:              listing.City,
		ApartmentType:     model.ApartmentTypeBase,
		Address:           listing.Address,
		Description:       listing.Description,
		Features:          listing.Features,
		NearbyAttractions: listing.NearbyAttractions,
		VideoFileID:       &videoFileID,
		Status:            model.ApartmentStatusAvailable,
		AreaSqm:           listing.AreaSqm,
		NumBedrooms:       listing.NumBedrooms,
	}

	if err := store.UpsertApartment(ctx, apt); err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}

// resolveVideoFileID reuses the file id already stored for the city's
// base listing, so re-running the import does not re-upload unchanged
// videos. Anything that does not look like a platform file id forces a
// fresh upload.
func resolveVideoFileID(ctx context.Context, city, videoPath string, store Store, uploader VideoUploader) (string, error) {
	existing, err := store.GetBaseApartment(ctx, city)
	if err != nil && !errors.Is(err, repository.ErrApartmentNotFound) {
		return "", fmt.Errorf("catalog lookup failed: %w", err)
	}
	if existing != nil && existing.VideoFileID != nil && looksLikeFileID(*existing.VideoFileID) {
		return *existing.VideoFileID, nil
	}

	fileID, err := uploader.UploadVideo(videoPath)
	if err != nil {
		return "", fmt.Errorf("video upload failed: %w", err)
	}
	return fileID, nil
}

// Telegram video file ids start with this prefix.
func looksLikeFileID(s string) bool {
	return strings.HasPrefix(s, "BAAD")
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return strings.TrimSpace(string(data)), nil
}

func parseMetadata(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata.txt: %w", err)
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("metadata.txt: malformed line %q", line)
		}
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return meta, nil
}
