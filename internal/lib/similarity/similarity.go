// Package similarity реализует нечёткое сравнение строк по биграммам.
//
// Используется при добавлении книг в каталог: кандидат сравнивается со всеми
// существующими названиями, и при высоком коэффициенте похожести добавление
// блокируется. Сравнение чувствительно к регистру — нормализация остаётся
// на вызывающей стороне.
package similarity

// Score возвращает коэффициент похожести двух строк в диапазоне [0, 1].
//
// Строки раскладываются на последовательности пересекающихся биграмм
// (двухсимвольных подстрок) с сохранением повторов. Совпадения считаются
// по принципу мультимножества: каждая биграмма второй строки может закрыть
// не более одного совпадения, берётся первая найденная при сканировании.
// Итог — вариант коэффициента Дайса: 2*|пересечение| / (|A| + |B|).
//
// Сложность O(n*m), для каталога в тысячи названий этого достаточно.
func Score(a, b string) float64 {
	if a == b {
		return 1
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	bigramsA := bigrams(ra)
	bigramsB := bigrams(rb)

	matched := make([]bool, len(bigramsB))
	var hits int
	for _, ba := range bigramsA {
		for j, bb := range bigramsB {
			if !matched[j] && ba == bb {
				matched[j] = true
				hits++
				break
			}
		}
	}

	return 2 * float64(hits) / float64(len(bigramsA)+len(bigramsB))
}

func bigrams(r []rune) []string {
	result := make([]string, 0, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		result = append(result, string(r[i:i+2]))
	}
	return result
}
