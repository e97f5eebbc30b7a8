package main

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	dig_container "github.com/trezcool/fyp/apps/api/di/dig"
	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/project"
	"github.com/trezcool/fyp/core/user"
	logsvc "github.com/trezcool/fyp/services/logger"
)

func main() {
	code := 0
	defer func() { os.Exit(code) }()

	c := dig_container.New(nil)
	err := c.Invoke(func(
		conf *core.Config,
		dbCloser dig_container.DBCloserParam,
		validate *validator.Validate,
		translator ut.Translator,
		usrSvc user.Service,
		prjSvc project.Service,
	) {
		logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
		//goland:noinspection GoUnhandledErrorResult
		defer dbCloser.Closer.Close()

		core.InitValidators(validate, translator)
		user.InitValidators(validate, translator)
		project.InitValidators(validate, translator)

		// start CLI
		db, _ := dbCloser.Closer.(*sqlx.DB)
		cli := commandLine{
			conf:     conf,
			db:       db,
			validate: validate,
			usrSvc:   usrSvc,
			prjSvc:   prjSvc,
			logger:   logger,
		}
		if err := cli.run(os.Args[1:], os.Stdout); err != nil {
			if err != errHelp {
				logger.Error("error: "+err.Error(), err)
			}
			code = 1
		}
	})
	if err != nil {
		log.Println(err)
		code = 1
	}
}
