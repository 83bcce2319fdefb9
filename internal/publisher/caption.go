package publisher

import (
	"fmt"
	"strings"
	"time"

	"rental-booking/internal/models"
)

// categories rotate Monday first.
var categories = [7]string{"Cámaras", "Lentes", "Iluminación", "Sonido", "Accesorios", "Cámaras", "Lentes"}

// CategoryFor returns the category featured on t's weekday.
func CategoryFor(t time.Time) string {
	weekday := (int(t.Weekday()) + 6) % 7 // Monday=0, ..., Sunday=6
	return categories[weekday]
}

var captionTemplates = []func(eq models.Equipment) string{
	func(eq models.Equipment) string {
		return fmt.Sprintf("¡Equipo disponible para tu próximo proyecto! Renta nuestro/a %s y lleva tu producción al siguiente nivel. #RentaDeEquipo #%s #ProduccionAudiovisual",
			eq.Name, hashtag(eq.Category))
	},
	func(eq models.Equipment) string {
		return fmt.Sprintf("¿Necesitas un/a %s? ¡Lo tenemos! Calidad profesional a tu alcance. Visita nuestro sitio para más detalles. #Cineastas #%s",
			eq.Name, hashtag(eq.Name))
	},
	func(eq models.Equipment) string {
		return fmt.Sprintf("Eleva la calidad de tu trabajo con nuestro/a %s. Disponible para renta por día. ¡Reserva ahora! #EquipoProfesional #%s",
			eq.Name, hashtag(eq.Category))
	},
}

// Caption renders template i (mod the number of templates) for eq.
func Caption(eq models.Equipment, i int) string {
	return captionTemplates[i%len(captionTemplates)](eq)
}

func hashtag(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// filterByCategory keeps items whose category matches case-insensitively.
func filterByCategory(items []models.Equipment, category string) []models.Equipment {
	var out []models.Equipment
	for _, eq := range items {
		if strings.EqualFold(eq.Category, category) {
			out = append(out, eq)
		}
	}
	return out
}
