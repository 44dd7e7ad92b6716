package extractor

import (
	"reflect"
	"testing"
	"time"

	"github.com/trezcool/gremuiv/core/journal"
)

func Test_findTopics(t *testing.T) {
	ex := testExtractor(date(2023, time.September, 1))

	rows := [][]string{
		{"№", "ФИО обучающихся", "4", "6"},
		{"", "Иванов Иван", "5", "н"},
		{},
		{"№", "Дата проведения", "Кол-во часов", "Наименование темы занятия"},
		{"1", "04.09.2023", "2", "Введение в дисциплину"},
		{"2", "", "4", "Основы алгоритмизации"},
		{"3", "06.09.2023", "пара", "Структуры данных"},
		{"4", "", "2", "Кол-во часов"}, // header fragment repeated mid-table
		{"5", "", "2", "ДЗ"},           // too short
	}

	got := ex.findTopics(rows, "32", "Химия")

	d := date(2023, time.September, 4)
	d2 := date(2023, time.September, 6)
	want := []journal.TopicRecord{
		{Group: "32", Subject: "Химия", Name: "Введение в дисциплину", Hours: 2, Date: &d},
		{Group: "32", Subject: "Химия", Name: "Основы алгоритмизации", Hours: 4},
		{Group: "32", Subject: "Химия", Name: "Структуры данных", Hours: 2, Date: &d2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("findTopics() = %+v, want %+v", got, want)
	}
}

func Test_findTopics_noTable(t *testing.T) {
	ex := testExtractor(date(2023, time.September, 1))

	rows := [][]string{
		{"№", "ФИО обучающихся", "4", "6"},
		{"", "Иванов Иван", "5", "н"},
	}
	if got := ex.findTopics(rows, "32", "Химия"); got != nil {
		t.Errorf("findTopics() = %+v, want nil when no topics header exists", got)
	}
}

func Test_findTopics_denylist(t *testing.T) {
	ex := New(Config{TopicRowDenylist: []string{"4"}})

	rows := [][]string{
		{"Кол-во часов", "Наименование занятия"},
		{"2", "Первая тема"},
		{"4", "Вторая тема"},
	}
	got := ex.findTopics(rows, "32", "Химия")
	if len(got) != 1 || got[0].Name != "Первая тема" {
		t.Errorf("findTopics() = %+v, want only the first topic", got)
	}
}
