package catalog

// CategoryRecord is a provider category as returned by get_*_categories.
type CategoryRecord struct {
	CategoryID   FlexString `json:"category_id"`
	CategoryName FlexString `json:"category_name"`
	ParentID     FlexString `json:"parent_id"`
}

// ItemRecord is a provider stream or series entry. The three domains share
// one record; fields a domain does not use stay empty.
type ItemRecord struct {
	Name               FlexString  `json:"name"`
	StreamType         FlexString  `json:"stream_type"`
	StreamIcon         FlexString  `json:"stream_icon"`
	Cover              FlexString  `json:"cover"`
	CategoryID         FlexString  `json:"category_id"`
	Rating             FlexString  `json:"rating"`
	Added              FlexString  `json:"added"`
	ContainerExtension FlexString  `json:"container_extension"`
	Plot               FlexString  `json:"plot"`
	Cast               FlexString  `json:"cast"`
	Director           FlexString  `json:"director"`
	Genre              FlexString  `json:"genre"`
	ReleaseDate        FlexString  `json:"releaseDate"`
	LastModified       FlexString  `json:"last_modified"`
	YoutubeTrailer     FlexString  `json:"youtube_trailer"`
	EpisodeRunTime     FlexString  `json:"episode_run_time"`
	StreamID           FlexString  `json:"stream_id"`
	SeriesID           FlexString  `json:"series_id"`
	BackdropPath       FlexStrings `json:"backdrop_path"`
}

// ID returns the provider item id for the record's domain.
func (r ItemRecord) ID() int64 {
	if id := r.StreamID.Int(); id != 0 {
		return id
	}
	return r.SeriesID.Int()
}
