package trip

// Seed provides the sample itinerary shown to first-time visitors.
// Activity ids are left empty; the editor assigns them on load.
func Seed() Trip {
	return Trip{
		Title:       "6-Day Romantic Luxury Wellness & Adventure in Japan",
		Destination: "Japan",
		Days: []Day{
			{
				Date:     "2024-10-01",
				Location: "Kyoto",
				Activities: []Activity{
					{
						Title:       "Arrive at Kyoto",
						Location:    "Kyoto Station",
						StartTime:   "14:00",
						Duration:    "2 hours",
						Category:    CategoryTransport,
						Description: "Arrival by Shinkansen from Tokyo",
						Coordinates: &Coordinates{Lat: 34.9858, Lng: 135.7588},
					},
					{
						Title:       "Check-in at Luxury Ryokan",
						Location:    "Gion District",
						StartTime:   "16:00",
						Duration:    "1 hour",
						Category:    CategoryHotel,
						Description: "Traditional Japanese inn with hot springs",
						Coordinates: &Coordinates{Lat: 35.0037, Lng: 135.7788},
					},
					{
						Title:       "Dinner at Michelin Star Restaurant",
						Location:    "Pontocho Alley",
						StartTime:   "19:00",
						Duration:    "2 hours",
						Category:    CategoryRestaurant,
						Description: "Kaiseki multi-course dining experience",
						Coordinates: &Coordinates{Lat: 35.0050, Lng: 135.7707},
					},
				},
			},
			{
				Date:     "2024-10-02",
				Location: "Kyoto",
				Activities: []Activity{
					{
						Title:       "Visit Kinkaku-ji (Golden Pavilion)",
						Location:    "Kinkaku-ji Temple",
						StartTime:   "09:00",
						Duration:    "1.5 hours",
						Category:    CategoryAttraction,
						Description: "Zen Buddhist temple with golden exterior",
						Coordinates: &Coordinates{Lat: 35.0394, Lng: 135.7292},
					},
					{
						Title:       "Arashiyama Bamboo Grove",
						Location:    "Arashiyama",
						StartTime:   "14:00",
						Duration:    "2 hours",
						Category:    CategoryActivity,
						Description: "Walk through the iconic bamboo forest",
						Coordinates: &Coordinates{Lat: 35.0170, Lng: 135.6713},
					},
				},
			},
			{
				Date:     "2024-10-03",
				Location: "Hakone",
				Activities: []Activity{
					{
						Title:       "Travel to Hakone",
						Location:    "Hakone",
						StartTime:   "10:00",
						Duration:    "3 hours",
						Category:    CategoryTransport,
						Description: "Scenic train ride to Hakone",
						Coordinates: &Coordinates{Lat: 35.2324, Lng: 139.1069},
					},
				},
			},
		},
	}
}
