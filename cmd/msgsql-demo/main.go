package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rzpsarthak13/msgsql/pkg/msgsql"
)

// fieldMessage is stored as a packed blob in t_test.field3.
type fieldMessage struct {
	FieldInt    int32  `msgsql:"filedint"`
	FieldUint   uint32 `msgsql:"fielduint"`
	FieldString string `msgsql:"fieldstring"`
}

// tableTest maps one row of mytest.t_test:
//
//	create table t_test (
//		keyid  int primary key,
//		field1 int,
//		field2 int,
//		field3 blob
//	);
type tableTest struct {
	KeyID  *int32        `msgsql:"keyid,primarykey,updatekey"`
	Field1 *int32        `msgsql:"field1"`
	Field2 *int32        `msgsql:"field2"`
	Field3 *fieldMessage `msgsql:"field3"`
}

type tableTestRepeated struct {
	Fields []*tableTest `msgsql:"fields"`
}

func i32(v int32) *int32 {
	return &v
}

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	tableName := flag.String("table", "test", "table binding to run against")
	flag.Parse()

	// 1. Load configuration (file, then MSGSQL_* environment overrides)
	config, err := msgsql.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if config.Database.Database == "" {
		config.Database.Database = "mytest"
	}
	if _, ok := config.Tables[*tableName]; !ok {
		if config.Tables == nil {
			config.Tables = make(map[string]msgsql.TableConfig)
		}
		config.Tables[*tableName] = msgsql.TableConfig{Table: "t_test"}
	}

	// The whole run is one transaction, committed at the end
	config.Database.AutoCommit = false

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Create the client
	client, err := msgsql.NewClient(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create msgsql client: %v", err)
	}
	defer client.Close()
	log.Printf("✓ Connected to %s:%d", config.Database.Host, config.Database.Port)

	gen, err := client.Generator(*tableName)
	if err != nil {
		log.Fatalf("Failed to build generator: %v", err)
	}

	// 3. Run the statements
	steps := []struct {
		name string
		run  func(context.Context, msgsql.Client, *msgsql.Generator) error
	}{
		{"insert one row", insertOneRow},
		{"insert multiple rows", insertMultiRows},
		{"select rows", selectRows},
		{"select multiple rows", selectMultiRows},
		{"update on insert", updateOnInsert},
		{"delete", deleteRows},
		{"delete multiple rows", deleteMultiRows},
	}

	for _, step := range steps {
		if err := step.run(ctx, client, gen); err != nil {
			log.Printf("✗ %s failed (code %d): %v", step.name, msgsql.Code(err), err)
			if errors.Is(err, msgsql.ErrRollback) {
				if rbErr := client.Rollback(ctx); rbErr != nil {
					log.Fatalf("Failed to roll back: %v", rbErr)
				}
				log.Fatalf("Rolled back after %s", step.name)
			}
			continue
		}
		log.Printf("✓ %s", step.name)
	}

	// 4. Commit
	if err := client.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v (%s)", err, client.LastError())
	}
	log.Println("✓ Committed")
}

func insertOneRow(ctx context.Context, client msgsql.Client, gen *msgsql.Generator) error {
	row := &tableTest{
		KeyID:  i32(1),
		Field1: i32(2),
		Field2: i32(20),
		Field3: &fieldMessage{FieldInt: -1, FieldUint: 10, FieldString: "test string"},
	}
	return client.Insert(ctx, gen, row)
}

func insertMultiRows(ctx context.Context, client msgsql.Client, gen *msgsql.Generator) error {
	rows := &tableTestRepeated{Fields: []*tableTest{
		{KeyID: i32(2), Field1: i32(10), Field2: i32(20), Field3: &fieldMessage{FieldInt: -10, FieldUint: 10}},
		{KeyID: i32(3), Field1: i32(20), Field2: i32(30), Field3: &fieldMessage{FieldInt: -20, FieldUint: 30}},
	}}
	return client.Insert(ctx, gen, rows)
}

func selectRows(ctx context.Context, client msgsql.Client, gen *msgsql.Generator) error {
	row := &tableTest{Field2: i32(20)}
	if err := client.Select(ctx, gen, row); err != nil {
		return err
	}
	log.Printf("  result: keyid=%s field1=%s field3=%+v", show(row.KeyID), show(row.Field1), row.Field3)
	return nil
}

func selectMultiRows(ctx context.Context, client msgsql.Client, gen *msgsql.Generator) error {
	rows := &tableTestRepeated{Fields: []*tableTest{{Field2: i32(20)}}}
	if err := client.Select(ctx, gen, rows); err != nil {
		return err
	}
	for i, row := range rows.Fields {
		log.Printf("  result[%d]: keyid=%s field1=%s field2=%s", i, show(row.KeyID), show(row.Field1), show(row.Field2))
	}
	return nil
}

func updateOnInsert(ctx context.Context, client msgsql.Client, gen *msgsql.Generator) error {
	return client.UpdateOnInsert(ctx, gen, &tableTest{KeyID: i32(10), Field1: i32(2)})
}

func deleteRows(ctx context.Context, client msgsql.Client, gen *msgsql.Generator) error {
	return client.Delete(ctx, gen, &tableTest{Field2: i32(30)})
}

func deleteMultiRows(ctx context.Context, client msgsql.Client, gen *msgsql.Generator) error {
	rows := &tableTestRepeated{Fields: []*tableTest{
		{Field1: i32(2)},
		{Field1: i32(20)},
	}}
	return client.Delete(ctx, gen, rows)
}

func show(v *int32) string {
	if v == nil {
		return "NULL"
	}
	return strconv.Itoa(int(*v))
}
